package flush

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"periph.io/x/devices/v3/ssd1681/image1bit"
)

// DefaultMaxPartialUpdates is the number of partial updates after which a full
// refresh is armed when Opts does not say otherwise.
const DefaultMaxPartialUpdates = 30

// Panel is the hardware side of the engine. Pixel data is in image1bit layout
// (a set bit is black); the panel performs no conversion.
//
// *ssd1681.Dev implements Panel.
type Panel interface {
	Bounds() image.Rectangle
	PartialUpdate(r image.Rectangle, pix []byte) error
	FullUpdate(pix []byte) error
	Hibernate() error
	Reinit() error
	PowerOff() error
}

// Toolkit is what the engine needs from the UI toolkit.
type Toolkit interface {
	// FlushReady acknowledges the flush in progress.
	FlushReady()
	// InvalidateAll marks the whole active screen dirty.
	InvalidateAll()
}

// Flusher is the capability a toolkit holds to present pixels.
// buf starts with HeaderSize palette bytes followed by the packed pixels of a.
type Flusher interface {
	Flush(a Area, buf []byte)
}

// State is the refresh state of an Engine.
type State int

const (
	// Idle: partial updates only.
	Idle State = iota
	// Armed: a full refresh waits for every row to be flushed again.
	Armed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	PartialCount  int // flushes since the last full refresh
	State         State
	RowsCovered   int // rows flushed since arming
	FullRefreshes int // full refreshes executed, successful or not
	Degraded      int // flushes acknowledged without a panel write
	PanelErrors   int // failed panel operations
}

// Opts configures an Engine.
type Opts struct {
	// MaxPartialUpdates is the partial update count that arms a full refresh.
	// Zero means DefaultMaxPartialUpdates. 1 arms after every flush.
	MaxPartialUpdates int

	// Logger receives engine events. Nil discards them.
	Logger *slog.Logger

	// Scratch provides the per-flush conversion buffer. Nil means a Scratch
	// sized for one full frame.
	Scratch Allocator
}

// Engine owns the shadow framebuffer and the refresh decision state for one panel.
type Engine struct {
	panel   Panel
	tk      Toolkit
	log     *slog.Logger
	scratch Allocator

	threshold int

	fb   *image1bit.HorizontalMSB
	rows *RowSet

	partialCount int
	fullPending  bool

	fullRefreshes int
	degraded      int
	panelErrors   int
}

var _ Flusher = &Engine{}

// New returns an Engine driving p on behalf of tk. opts can be nil.
func New(p Panel, tk Toolkit, opts *Opts) (*Engine, error) {
	if p == nil || tk == nil {
		return nil, errors.New("flush: panel and toolkit are required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	b := p.Bounds()
	if b.Empty() || b.Min != (image.Point{}) {
		return nil, fmt.Errorf("flush: unsupported panel bounds %v", b)
	}
	threshold := opts.MaxPartialUpdates
	if threshold == 0 {
		threshold = DefaultMaxPartialUpdates
	}
	if threshold < 1 {
		return nil, fmt.Errorf("flush: MaxPartialUpdates must be at least 1, got %d", threshold)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	scratch := opts.Scratch
	if scratch == nil {
		scratch = NewScratch(PixelBytes(b.Dx(), b.Dy()))
	}
	return &Engine{
		panel:     p,
		tk:        tk,
		log:       log,
		scratch:   scratch,
		threshold: threshold,
		fb:        image1bit.NewHorizontalMSB(b),
		rows:      NewRowSet(b.Dy()),
	}, nil
}

// Flush presents one dirty area. It always acknowledges the flush to the
// toolkit exactly once before returning, whatever happens to the panel write.
//
// Every call counts as one partial update. While a full refresh is armed, the
// rows of a are marked covered and the full refresh runs as soon as all rows are.
func (e *Engine) Flush(a Area, buf []byte) {
	defer e.tk.FlushReady()

	e.partialCount++
	e.log.Debug("flush", "area", a, "partial", e.partialCount, "armed", e.fullPending)
	e.writeWindow(a, buf)

	if !e.fullPending {
		return
	}
	e.rows.Mark(a.Y1, a.Y2)
	if e.rows.Full() {
		e.fullRefresh()
	}
}

// writeWindow converts a into the shadow framebuffer and sends it to the
// panel. The panel window is a widened to whole bytes, so its pixels come from
// the framebuffer. Failures skip the panel write.
func (e *Engine) writeWindow(a Area, buf []byte) {
	if a.Empty() || !a.Rect().In(e.fb.Rect) {
		e.degraded++
		e.log.Warn("flush area outside panel, skipping update", "area", a, "panel", e.fb.Rect)
		return
	}
	n := PixelBytes(a.Width(), a.Height())
	if len(buf) < HeaderSize+n {
		e.degraded++
		e.log.Warn("short flush buffer, skipping update", "area", a, "have", len(buf), "want", HeaderSize+n)
		return
	}
	win := alignWindow(a.Rect(), e.fb.Rect)
	m := PixelBytes(win.Dx(), win.Dy())
	dst, err := e.scratch.Get(m)
	if err != nil {
		e.degraded++
		e.log.Warn("no conversion buffer, skipping update", "area", a, "bytes", m, "err", err)
		return
	}
	defer e.scratch.Put(dst)

	Convert(dst, buf[HeaderSize:HeaderSize+n], a, e.fb)
	if win != a.Rect() {
		copyWindow(dst, e.fb, win)
	}
	if err := e.panel.PartialUpdate(win, dst[:m]); err != nil {
		e.panelErrors++
		e.log.Error("partial update failed", "area", a, "window", win, "err", err)
	}
}

// alignWindow widens r to byte columns, without going past bounds.
func alignWindow(r, bounds image.Rectangle) image.Rectangle {
	r.Min.X &^= 7
	r.Max.X = min((r.Max.X+7)&^7, bounds.Max.X)
	return r
}

// copyWindow packs the rows of the byte aligned window r of fb into dst.
func copyWindow(dst []byte, fb *image1bit.HorizontalMSB, r image.Rectangle) {
	n := image1bit.Stride(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := (y-fb.Rect.Min.Y)*fb.Stride + (r.Min.X-fb.Rect.Min.X)/8
		copy(dst[(y-r.Min.Y)*n:], fb.Pix[off:off+n])
	}
}

// CheckThreshold arms a full refresh once MaxPartialUpdates flushes happened
// since the last one. It is meant to run once per completed display update.
// Calling it while armed does nothing.
func (e *Engine) CheckThreshold() {
	if e.fullPending || e.partialCount < e.threshold {
		return
	}
	e.rows.Clear()
	e.fullPending = true
	e.log.Info("full refresh armed", "partial", e.partialCount, "threshold", e.threshold)
	e.tk.InvalidateAll()
}

// fullRefresh replays the shadow framebuffer through hibernate, reinit and a
// full update, then returns to Idle whether or not the panel cooperated.
func (e *Engine) fullRefresh() {
	e.fullRefreshes++
	e.log.Info("full refresh", "partial", e.partialCount)

	if err := e.panel.Hibernate(); err != nil {
		e.panelErrors++
		e.log.Warn("hibernate failed", "err", err)
	}
	if err := e.panel.Reinit(); err != nil {
		e.panelErrors++
		e.log.Error("panel reinit failed, full refresh skipped", "err", err)
	} else if err := e.panel.FullUpdate(e.fb.Pix); err != nil {
		e.panelErrors++
		e.log.Error("full update failed", "err", err)
	}

	e.partialCount = 0
	e.fullPending = false
	e.rows.Clear()
}

// PowerOff cuts the panel drive voltages. The image stays on the glass.
func (e *Engine) PowerOff() {
	if err := e.panel.PowerOff(); err != nil {
		e.panelErrors++
		e.log.Warn("panel power off failed", "err", err)
	}
}

// State returns the current refresh state.
func (e *Engine) State() State {
	if e.fullPending {
		return Armed
	}
	return Idle
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	covered := 0
	if e.fullPending {
		covered = e.rows.Count()
	}
	return Stats{
		PartialCount:  e.partialCount,
		State:         e.State(),
		RowsCovered:   covered,
		FullRefreshes: e.fullRefreshes,
		Degraded:      e.degraded,
		PanelErrors:   e.panelErrors,
	}
}

// Framebuffer returns the shadow framebuffer. Callers must not modify it.
func (e *Engine) Framebuffer() *image1bit.HorizontalMSB {
	return e.fb
}

// Bounds returns the panel bounds.
func (e *Engine) Bounds() image.Rectangle {
	return e.fb.Rect
}
