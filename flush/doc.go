// Package flush presents toolkit rendering output on a bistable e-paper panel.
//
// A retained-mode UI toolkit reports changed pixels as dirty areas. Engine.Flush
// converts each area from the toolkit's 1-bit format (1 = white) to the panel's
// (1 = black), records every pixel in a shadow framebuffer and sends the area to
// the panel as a fast partial update.
//
// Partial updates leave ghosting behind. Once MaxPartialUpdates flushes have
// happened, CheckThreshold arms a full refresh and asks the toolkit to
// invalidate the whole screen. The engine then waits until flushes have covered
// every panel row before it replays the shadow framebuffer with a hibernate,
// reinit and full update sequence, so the full refresh always shows a complete
// frame.
//
// Engine is not safe for concurrent use. The toolkit must not issue a flush
// before the previous one was acknowledged through Toolkit.FlushReady.
package flush
