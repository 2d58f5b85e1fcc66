// Package ssd1681 controls a SSD1681 monochrome e-paper display via SPI.
//
// The SSD1681 drives bistable 1.54" panels of up to 200x200 pixels. The image
// persists without power; only updates cost energy and time.
//
// See the examples for how to use this package.
package ssd1681

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1681/image1bit"
)

// Controller commands.
const (
	driverOutputControl            = 0x01
	deepSleepMode                  = 0x10
	dataEntryModeSetting           = 0x11
	swReset                        = 0x12
	tempSensorSelect               = 0x18
	masterActivation               = 0x20
	displayUpdateControl1          = 0x21
	displayUpdateControl2          = 0x22
	writeRAMBW                     = 0x24
	writeRAMRed                    = 0x26
	borderWaveformControl          = 0x3C
	setRAMXAddressStartEndPosition = 0x44
	setRAMYAddressStartEndPosition = 0x45
	setRAMXAddressCounter          = 0x4E
	setRAMYAddressCounter          = 0x4F
)

// Display update control 2 sequences.
const (
	updateFull     = 0xF7 // clock+analog on, load LUT, display mode 1, analog+clock off
	updatePartial  = 0xFC // clock+analog on, display mode 2
	updatePowerOff = 0x83 // analog+clock off
)

const busyPoll = 5 * time.Millisecond

var (
	ErrHalted      = errors.New("ssd1681: halted")
	ErrHibernating = errors.New("ssd1681: hibernating")
	ErrBusyTimeout = errors.New("ssd1681: busy timeout")
	ErrUnaligned   = errors.New("ssd1681: window x and width must be multiples of 8")
	ErrBufferSize  = errors.New("ssd1681: invalid buffer size")
)

// Opts is the configuration for the SSD1681 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 200, multiple of 8, ≤200)
	H int // Height (default: 200, ≤200)

	// SPI clock (default: 4MHz)
	Hz physic.Frequency

	RST  gpio.PinOut // Reset pin (optional; without it Hibernate only powers off)
	Busy gpio.PinIn  // BUSY pin (required)

	// Maximum time to wait for BUSY to drop (default: 5s)
	BusyTimeout time.Duration
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.W%8 != 0 || o.W > 200 {
		return errors.New("ssd1681: width must be a multiple of 8 between 8 and 200")
	}
	if o.H <= 0 || o.H > 200 {
		return errors.New("ssd1681: height must be between 1 and 200")
	}
	return nil
}

// Dev is the device handle for the SSD1681 display.
//
// Pixel data handed to Dev uses the image1bit layout: rows packed MSB first,
// a set bit is black.
type Dev struct {
	// Communication
	c    conn.Conn   // SPI connection
	dc   gpio.PinOut // Data/Command pin
	rst  gpio.PinOut // Reset pin (optional)
	busy gpio.PinIn  // BUSY pin

	busyTimeout time.Duration

	rect image.Rectangle

	// Frame composed by Draw
	next *image1bit.HorizontalMSB

	// State
	hibernating bool
	halted      bool
}

var _ display.Drawer = &Dev{}

// NewSPI creates a new SSD1681 device connected via SPI.
//
// The SPI port is configured for Mode0, 8-bit transfers. The dc (Data/Command)
// GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (200x200 display) but then has no BUSY pin,
// which NewSPI rejects.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	o := *opts
	if o.W == 0 && o.H == 0 {
		o.W, o.H = 200, 200
	}
	if o.Hz == 0 {
		o.Hz = 4 * physic.MegaHertz
	}
	if o.BusyTimeout == 0 {
		o.BusyTimeout = 5 * time.Second
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("ssd1681: DC pin is required")
	}
	if o.Busy == nil {
		return nil, errors.New("ssd1681: BUSY pin is required")
	}

	c, err := p.Connect(o.Hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1681: failed to connect SPI: %w", err)
	}

	d := &Dev{
		c:           c,
		dc:          dc,
		rst:         o.RST,
		busy:        o.Busy,
		busyTimeout: o.BusyTimeout,
		rect:        image.Rect(0, 0, o.W, o.H),
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	if err := d.clearRAM(); err != nil {
		return nil, err
	}
	return d, nil
}

// init resets the controller and loads the panel configuration.
func (d *Dev) init() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ssd1681: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ssd1681: failed to pull RST high: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := d.sendCommand(swReset); err != nil {
		return err
	}
	if err := d.waitBusy(); err != nil {
		return err
	}

	gates := d.rect.Dy() - 1
	steps := [][]byte{
		{driverOutputControl, byte(gates), byte(gates >> 8), 0x00},
		{dataEntryModeSetting, 0x03}, // X+, Y+, X first
		{borderWaveformControl, 0x05},
		// Invert both RAMs so a set bit drives the pixel black.
		{displayUpdateControl1, 0x88, 0x00},
		{tempSensorSelect, 0x80}, // internal sensor
	}
	for _, s := range steps {
		if err := d.command(s[0], s[1:]...); err != nil {
			return err
		}
	}
	if err := d.setRAMArea(d.rect); err != nil {
		return err
	}
	d.hibernating = false
	return d.waitBusy()
}

// clearRAM fills both RAM banks with white pixels.
func (d *Dev) clearRAM() error {
	white := make([]byte, image1bit.Stride(d.rect.Dx())*d.rect.Dy())
	for _, ram := range []byte{writeRAMRed, writeRAMBW} {
		if err := d.setRAMArea(d.rect); err != nil {
			return err
		}
		if err := d.command(ram, white...); err != nil {
			return err
		}
	}
	return nil
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(data, nil)
}

// command sends cmd followed by its parameters, if any.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.sendData(data)
}

// waitBusy polls BUSY until the controller is idle.
func (d *Dev) waitBusy() error {
	if d.busy == nil {
		return nil
	}
	deadline := time.Now().Add(d.busyTimeout)
	for d.busy.Read() == gpio.High {
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		time.Sleep(busyPoll)
	}
	return nil
}

// setRAMArea sets the RAM window and moves the address counters to its origin.
// r.Min.X must be a multiple of 8.
func (d *Dev) setRAMArea(r image.Rectangle) error {
	xs, xe := byte(r.Min.X/8), byte((r.Max.X-1)/8)
	ys, ye := r.Min.Y, r.Max.Y-1
	steps := [][]byte{
		{setRAMXAddressStartEndPosition, xs, xe},
		{setRAMYAddressStartEndPosition, byte(ys), byte(ys >> 8), byte(ye), byte(ye >> 8)},
		{setRAMXAddressCounter, xs},
		{setRAMYAddressCounter, byte(ys), byte(ys >> 8)},
	}
	for _, s := range steps {
		if err := d.command(s[0], s[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// update runs a display update sequence and waits for it to finish.
func (d *Dev) update(seq byte) error {
	if err := d.command(displayUpdateControl2, seq); err != nil {
		return err
	}
	if err := d.sendCommand(masterActivation); err != nil {
		return err
	}
	return d.waitBusy()
}

// writeRAM writes pix into the given RAM bank over the window r.
func (d *Dev) writeRAM(ram byte, r image.Rectangle, pix []byte) error {
	if err := d.setRAMArea(r); err != nil {
		return err
	}
	return d.command(ram, pix...)
}

func (d *Dev) ready() error {
	if d.halted {
		return ErrHalted
	}
	if d.hibernating {
		return ErrHibernating
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// PartialUpdate writes pix to the window r and runs a fast differential update.
//
// r.Min.X and r.Dx() must be multiples of 8 and pix must hold exactly
// image1bit.Stride(r.Dx())*r.Dy() bytes. The window is written again into the
// previous-image RAM afterwards so the next differential update starts from what
// is on the glass.
func (d *Dev) PartialUpdate(r image.Rectangle, pix []byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	if r.Empty() || !r.In(d.rect) {
		return fmt.Errorf("ssd1681: window %v outside %v", r, d.rect)
	}
	if r.Min.X%8 != 0 || r.Dx()%8 != 0 {
		return ErrUnaligned
	}
	if len(pix) != image1bit.Stride(r.Dx())*r.Dy() {
		return ErrBufferSize
	}
	if err := d.writeRAM(writeRAMBW, r, pix); err != nil {
		return err
	}
	if err := d.update(updatePartial); err != nil {
		return err
	}
	return d.writeRAM(writeRAMRed, r, pix)
}

// FullUpdate writes a whole frame to both RAM banks and runs the full update
// waveform, which clears ghosting left by partial updates.
func (d *Dev) FullUpdate(pix []byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	if len(pix) != image1bit.Stride(d.rect.Dx())*d.rect.Dy() {
		return ErrBufferSize
	}
	if err := d.writeRAM(writeRAMRed, d.rect, pix); err != nil {
		return err
	}
	if err := d.writeRAM(writeRAMBW, d.rect, pix); err != nil {
		return err
	}
	return d.update(updateFull)
}

// PowerOff turns off the panel drive voltages. The image stays on the glass.
func (d *Dev) PowerOff() error {
	if d.halted || d.hibernating {
		return nil
	}
	return d.update(updatePowerOff)
}

// Hibernate powers off and, when a reset pin is available, puts the controller
// into deep sleep. Only Reinit brings it back.
func (d *Dev) Hibernate() error {
	if d.halted || d.hibernating {
		return nil
	}
	if err := d.update(updatePowerOff); err != nil {
		return err
	}
	if d.rst == nil {
		return nil
	}
	if err := d.command(deepSleepMode, 0x01); err != nil {
		return err
	}
	d.hibernating = true
	return nil
}

// Reinit resets the controller and reloads its configuration, leaving the
// RAM banks untouched so a full update can follow.
func (d *Dev) Reinit() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.init(); err != nil {
		return fmt.Errorf("ssd1681: reinit: %w", err)
	}
	return nil
}

// Write writes a whole frame in image1bit layout and runs a full update.
func (d *Dev) Write(pixels []byte) (int, error) {
	if err := d.FullUpdate(pixels); err != nil {
		return 0, err
	}
	if d.next != nil {
		copy(d.next.Pix, pixels)
	}
	return len(pixels), nil
}

// Draw draws an image onto the display.
//
// The destination is widened to 8 pixel columns and sent as a partial update;
// drawing the whole display runs a full update instead.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.ready(); err != nil {
		return err
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	if d.next == nil {
		d.next = image1bit.NewHorizontalMSB(d.rect)
	}
	draw.Draw(d.next, dst, src, sp, draw.Src)

	if dst == d.rect {
		return d.FullUpdate(d.next.Pix)
	}
	win := alignWindow(dst)
	return d.PartialUpdate(win, d.extractRegion(win))
}

// alignWindow widens r outwards to byte boundaries.
func alignWindow(r image.Rectangle) image.Rectangle {
	r.Min.X &^= 7
	r.Max.X = (r.Max.X + 7) &^ 7
	return r
}

// extractRegion copies the rows of an aligned window out of the Draw frame.
func (d *Dev) extractRegion(r image.Rectangle) []byte {
	n := r.Dx() / 8
	out := make([]byte, 0, n*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*d.next.Stride + r.Min.X/8
		out = append(out, d.next.Pix[off:off+n]...)
	}
	return out
}

// Halt hibernates the display. The image stays visible.
// After calling Halt, the display will not respond to further commands.
func (d *Dev) Halt() error {
	err := d.Hibernate()
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1681.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
