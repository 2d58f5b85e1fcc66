package flush

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/devices/v3/ssd1681/image1bit"
)

func TestConvertPolarity(t *testing.T) {
	fb := image1bit.NewHorizontalMSB(image.Rect(0, 0, 16, 2))
	a := Area{X1: 0, Y1: 0, X2: 15, Y2: 1}
	src := []byte{0xF0, 0x0F, 0xAA, 0x55}
	dst := make([]byte, 4)

	Convert(dst, src, a, fb)

	assert.Equal(t, []byte{0x0F, 0xF0, 0x55, 0xAA}, dst)
	// Source bit 0 is black, so every bit is the inverse.
	for y := 0; y < 2; y++ {
		for x := 0; x < 16; x++ {
			srcBit := src[y*2+x/8]&(0x80>>uint(x&7)) != 0
			assert.Equal(t, image1bit.Bit(!srcBit), fb.BitAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestConvertAbsoluteCoordinates(t *testing.T) {
	fb := image1bit.NewHorizontalMSB(image.Rect(0, 0, 32, 8))
	a := Area{X1: 8, Y1: 3, X2: 15, Y2: 4}
	// Row 0: only x=0 black. Row 1: only x=7 black.
	src := []byte{0x7F, 0xFE}
	dst := make([]byte, 2)

	Convert(dst, src, a, fb)

	assert.Equal(t, []byte{0x80, 0x01}, dst)
	assert.Equal(t, image1bit.Black, fb.BitAt(8, 3))
	assert.Equal(t, image1bit.Black, fb.BitAt(15, 4))
	assert.Equal(t, image1bit.White, fb.BitAt(9, 3))
	assert.Equal(t, image1bit.White, fb.BitAt(0, 0))
}

func TestConvertPaddingBits(t *testing.T) {
	fb := image1bit.NewHorizontalMSB(image.Rect(0, 0, 16, 2))
	a := Area{X1: 0, Y1: 0, X2: 9, Y2: 1}
	// All black within the width; padding bits in src are set (white) and
	// garbage in dst must be cleared.
	src := []byte{0x00, 0x3F, 0x00, 0x3F}
	dst := []byte{0xFF, 0xFF, 0xFF, 0xFF}

	Convert(dst, src, a, fb)

	assert.Equal(t, []byte{0xFF, 0xC0, 0xFF, 0xC0}, dst)
	assert.Equal(t, image1bit.White, fb.BitAt(10, 0), "pixels past the width are not touched")
}

func TestConvertOverwritesFramebuffer(t *testing.T) {
	fb := image1bit.NewHorizontalMSB(image.Rect(0, 0, 8, 1))
	fb.Fill(image1bit.Black)
	Convert(make([]byte, 1), []byte{0xFF}, Area{X2: 7}, fb)
	assert.Equal(t, []byte{0x00}, fb.Pix)
}

func TestPixelBytes(t *testing.T) {
	require.Equal(t, 5000, PixelBytes(200, 200))
	require.Equal(t, 100, PixelBytes(9, 50))
	require.Equal(t, 7*50, PixelBytes(50, 50))
	require.Equal(t, 8, HeaderSize)
}
