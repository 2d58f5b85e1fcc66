// Package canvas is a small retained 1-bit drawing surface that plays the UI
// toolkit's part in front of a flush.Engine.
//
// Pixels are kept in the toolkit convention (a set bit is white). Drawing marks
// a dirty rectangle; Display rounds it out to 8 pixel columns and hands it to
// the attached flush.Flusher in bands of at most bufRows rows, through a single
// draw buffer, waiting for each band to be acknowledged.
//
// Canvas implements drivers.Displayer, so tinyfont and the other TinyGo
// drawing helpers can render into it, and flush.Toolkit.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"tinygo.org/x/drivers"

	"periph.io/x/devices/v3/ssd1681/flush"
	"periph.io/x/devices/v3/ssd1681/image1bit"
)

var (
	_ drivers.Displayer = (*Canvas)(nil)
	_ flush.Toolkit     = (*Canvas)(nil)
)

// palette is the flush buffer header: index 0 black, index 1 white, 32-bit BGRA.
var palette = [flush.HeaderSize]byte{0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Canvas is a w×h 1-bit surface.
type Canvas struct {
	rect   image.Rectangle
	stride int
	pix    []byte // set bit is white

	dirty image.Rectangle

	bufRows int
	buf     []byte // palette + one band

	out      flush.Flusher
	inFlight bool
	flushes  int
}

// New returns a white w×h canvas flushing at most bufRows rows at a time.
// The whole surface starts dirty.
func New(w, h, bufRows int) *Canvas {
	if bufRows <= 0 || bufRows > h {
		bufRows = h
	}
	stride := image1bit.Stride(w)
	c := &Canvas{
		rect:    image.Rect(0, 0, w, h),
		stride:  stride,
		pix:     make([]byte, stride*h),
		bufRows: bufRows,
		buf:     make([]byte, flush.HeaderSize+stride*bufRows),
	}
	for i := range c.pix {
		c.pix[i] = 0xFF
	}
	copy(c.buf, palette[:])
	c.dirty = c.rect
	return c
}

// Attach sets the Flusher that receives Display output.
func (c *Canvas) Attach(f flush.Flusher) {
	c.out = f
}

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return c.rect
}

// Size implements drivers.Displayer.
func (c *Canvas) Size() (x, y int16) {
	return int16(c.rect.Dx()), int16(c.rect.Dy())
}

// SetPixel implements drivers.Displayer. Dark colors draw black.
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	c.set(int(x), int(y), image1bit.BitModel.Convert(col).(image1bit.Bit))
}

func (c *Canvas) set(x, y int, b image1bit.Bit) {
	if !(image.Point{X: x, Y: y}.In(c.rect)) {
		return
	}
	off, mask := y*c.stride+x/8, byte(0x80)>>uint(x&7)
	old := c.pix[off]
	if b == image1bit.Black {
		c.pix[off] &^= mask
	} else {
		c.pix[off] |= mask
	}
	if c.pix[off] != old {
		c.Invalidate(image.Rect(x, y, x+1, y+1))
	}
}

// BitAt returns the color of the pixel at (x, y).
func (c *Canvas) BitAt(x, y int) image1bit.Bit {
	if !(image.Point{X: x, Y: y}.In(c.rect)) {
		return image1bit.White
	}
	return c.pix[y*c.stride+x/8]&(0x80>>uint(x&7)) == 0
}

// FillRectangle fills a rectangle with col.
func (c *Canvas) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).Intersect(c.rect)
	if r.Empty() {
		return nil
	}
	b := image1bit.BitModel.Convert(col).(image1bit.Bit)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			c.set(px, py, b)
		}
	}
	return nil
}

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col color.RGBA) {
	_ = c.FillRectangle(0, 0, int16(c.rect.Dx()), int16(c.rect.Dy()), col)
}

// Invalidate adds r to the dirty rectangle.
func (c *Canvas) Invalidate(r image.Rectangle) {
	r = r.Intersect(c.rect)
	if r.Empty() {
		return
	}
	c.dirty = c.dirty.Union(r)
}

// InvalidateAll marks the whole canvas dirty. It implements flush.Toolkit.
func (c *Canvas) InvalidateAll() {
	c.dirty = c.rect
}

// FlushReady acknowledges the band in flight. It implements flush.Toolkit.
func (c *Canvas) FlushReady() {
	c.inFlight = false
}

// Dirty returns the pending dirty rectangle.
func (c *Canvas) Dirty() image.Rectangle {
	return c.dirty
}

// Flushes returns the number of bands flushed so far.
func (c *Canvas) Flushes() int {
	return c.flushes
}

// Display implements drivers.Displayer. It flushes the dirty rectangle.
// If a band is not acknowledged, it and the bands after it stay dirty.
func (c *Canvas) Display() error {
	if c.out == nil {
		return errors.New("canvas: no flusher attached")
	}
	if c.dirty.Empty() {
		return nil
	}
	r := c.round(c.dirty)
	c.dirty = image.Rectangle{}

	for y := r.Min.Y; y < r.Max.Y; y += c.bufRows {
		band := image.Rect(r.Min.X, y, r.Max.X, min(y+c.bufRows, r.Max.Y))
		n := c.pack(band)
		c.inFlight = true
		c.out.Flush(flush.AreaFromRect(band), c.buf[:flush.HeaderSize+n])
		if c.inFlight {
			c.inFlight = false
			c.Invalidate(image.Rect(r.Min.X, y, r.Max.X, r.Max.Y))
			return fmt.Errorf("canvas: flush of %v not acknowledged", band)
		}
		c.flushes++
	}
	return nil
}

// round widens r to whole bytes, as the panel RAM is addressed in 8 pixel columns.
func (c *Canvas) round(r image.Rectangle) image.Rectangle {
	r.Min.X &^= 7
	r.Max.X = min((r.Max.X+7)&^7, c.rect.Max.X)
	return r
}

// pack copies the rows of band into the draw buffer and returns the pixel byte count.
func (c *Canvas) pack(band image.Rectangle) int {
	n := image1bit.Stride(band.Dx())
	dst := c.buf[flush.HeaderSize:]
	for y := band.Min.Y; y < band.Max.Y; y++ {
		src := c.pix[y*c.stride+band.Min.X/8:]
		copy(dst[(y-band.Min.Y)*n:], src[:n])
	}
	return n * band.Dy()
}
