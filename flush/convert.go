package flush

import "periph.io/x/devices/v3/ssd1681/image1bit"

// HeaderSize is the length of the 2-entry color palette that precedes the
// pixels of every toolkit flush buffer.
const HeaderSize = 2 * 4

// PixelBytes returns the size of a w×h block packed 8 pixels per byte,
// each row starting on a byte boundary.
func PixelBytes(w, h int) int {
	return image1bit.Stride(w) * h
}

// Convert translates the toolkit pixels of area a in src into panel pixels in dst
// and records every pixel in fb at its absolute position.
//
// src and dst share the packing of PixelBytes(a.Width(), a.Height()) bytes. In src
// a cleared bit is black; in dst a set bit is black. Padding bits past the area
// width are never read from src and stay cleared in dst.
func Convert(dst, src []byte, a Area, fb *image1bit.HorizontalMSB) {
	w, h := a.Width(), a.Height()
	stride := image1bit.Stride(w)
	dst = dst[:stride*h]
	for i := range dst {
		dst[i] = 0
	}
	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			mask := byte(0x80) >> uint(x&7)
			black := src[row+x/8]&mask == 0
			if black {
				dst[row+x/8] |= mask
			}
			fb.SetBit(a.X1+x, a.Y1+y, image1bit.Bit(black))
		}
	}
}
