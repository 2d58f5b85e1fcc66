// Package flushtest implements fakes for the flush package interfaces.
package flushtest

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/devices/v3/ssd1681/image1bit"
)

// OpKind names a Panel operation.
type OpKind string

const (
	OpPartial   OpKind = "partial"
	OpFull      OpKind = "full"
	OpHibernate OpKind = "hibernate"
	OpReinit    OpKind = "reinit"
	OpPowerOff  OpKind = "poweroff"
)

// Op is one recorded Panel operation.
type Op struct {
	Kind OpKind
	Rect image.Rectangle
	Pix  []byte
}

// Panel is an in-memory flush.Panel. Glass holds what a real panel would show.
//
// Like the SSD1681, PartialUpdate only takes windows starting on a byte
// column whose width is a multiple of 8, or that end on the right edge.
// The *Err fields make the matching operation fail; a failing update leaves
// Glass untouched.
type Panel struct {
	Glass *image1bit.HorizontalMSB
	Ops   []Op

	PartialErr   error
	FullErr      error
	HibernateErr error
	ReinitErr    error
	PowerOffErr  error
}

// NewPanel returns a white w×h Panel.
func NewPanel(w, h int) *Panel {
	return &Panel{Glass: image1bit.NewHorizontalMSB(image.Rect(0, 0, w, h))}
}

// Bounds implements flush.Panel.
func (p *Panel) Bounds() image.Rectangle {
	return p.Glass.Rect
}

// PartialUpdate implements flush.Panel.
func (p *Panel) PartialUpdate(r image.Rectangle, pix []byte) error {
	p.record(OpPartial, r, pix)
	if p.PartialErr != nil {
		return p.PartialErr
	}
	if !r.In(p.Glass.Rect) {
		return fmt.Errorf("flushtest: window %v outside %v", r, p.Glass.Rect)
	}
	if r.Min.X%8 != 0 || (r.Dx()%8 != 0 && r.Max.X != p.Glass.Rect.Max.X) {
		return ErrUnaligned
	}
	stride := image1bit.Stride(r.Dx())
	if len(pix) != stride*r.Dy() {
		return errors.New("flushtest: invalid buffer size")
	}
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			on := pix[y*stride+x/8]&(0x80>>uint(x&7)) != 0
			p.Glass.SetBit(r.Min.X+x, r.Min.Y+y, image1bit.Bit(on))
		}
	}
	return nil
}

// FullUpdate implements flush.Panel.
func (p *Panel) FullUpdate(pix []byte) error {
	p.record(OpFull, p.Glass.Rect, pix)
	if p.FullErr != nil {
		return p.FullErr
	}
	if len(pix) != len(p.Glass.Pix) {
		return errors.New("flushtest: invalid buffer size")
	}
	copy(p.Glass.Pix, pix)
	return nil
}

// Hibernate implements flush.Panel.
func (p *Panel) Hibernate() error {
	p.record(OpHibernate, image.Rectangle{}, nil)
	return p.HibernateErr
}

// Reinit implements flush.Panel.
func (p *Panel) Reinit() error {
	p.record(OpReinit, image.Rectangle{}, nil)
	return p.ReinitErr
}

// PowerOff implements flush.Panel.
func (p *Panel) PowerOff() error {
	p.record(OpPowerOff, image.Rectangle{}, nil)
	return p.PowerOffErr
}

func (p *Panel) record(k OpKind, r image.Rectangle, pix []byte) {
	p.Ops = append(p.Ops, Op{Kind: k, Rect: r, Pix: append([]byte(nil), pix...)})
}

// Count returns how many operations of kind k were recorded.
func (p *Panel) Count(k OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Kinds returns the recorded operation kinds in order.
func (p *Panel) Kinds() []OpKind {
	out := make([]OpKind, len(p.Ops))
	for i, op := range p.Ops {
		out[i] = op.Kind
	}
	return out
}

// Toolkit is a flush.Toolkit counting calls.
type Toolkit struct {
	Acks          int
	Invalidations int

	// OnInvalidate, if set, runs inside InvalidateAll.
	OnInvalidate func()
}

// FlushReady implements flush.Toolkit.
func (t *Toolkit) FlushReady() {
	t.Acks++
}

// InvalidateAll implements flush.Toolkit.
func (t *Toolkit) InvalidateAll() {
	t.Invalidations++
	if t.OnInvalidate != nil {
		t.OnInvalidate()
	}
}

// ErrUnaligned is returned by Panel.PartialUpdate for windows not on byte columns.
var ErrUnaligned = errors.New("flushtest: window x and width must be multiples of 8")

// ErrNoMemory is returned by FailingScratch.
var ErrNoMemory = errors.New("flushtest: out of memory")

// FailingScratch is a flush.Allocator that never has memory.
type FailingScratch struct {
	Gets int
}

// Get implements flush.Allocator.
func (s *FailingScratch) Get(int) ([]byte, error) {
	s.Gets++
	return nil, ErrNoMemory
}

// Put implements flush.Allocator.
func (s *FailingScratch) Put([]byte) {}

// Buffer builds a toolkit flush buffer for a: palette header followed by the
// packed pixels, where black(x, y) selects black at absolute coordinates.
func Buffer(x1, y1, x2, y2 int, black func(x, y int) bool) []byte {
	w, h := x2-x1+1, y2-y1+1
	stride := image1bit.Stride(w)
	buf := make([]byte, 8+stride*h)
	// Palette: index 0 black, index 1 white, as 32-bit BGRA entries.
	copy(buf, []byte{0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	pix := buf[8:]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !black(x1+x, y1+y) {
				pix[y*stride+x/8] |= 0x80 >> uint(x&7)
			}
		}
	}
	return buf
}
