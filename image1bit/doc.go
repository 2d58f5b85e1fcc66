// Package image1bit provides a 1-bit monochrome image format matching the SSD1681 RAM layout.
//
// The SSD1681 e-paper controller stores one bit per pixel, rows packed horizontally
// with the most significant bit holding the leftmost pixel. A set bit is a black
// pixel and a cleared bit is a white pixel.
//
// Memory layout example for a 10-pixel row:
//
//	Pixels: 0 1 2 3 4 5 6 7 | 8 9
//	Values: B W W B W W W W | B B
//	Bytes:  0x90              0xC0
//	        (trailing bits past the row width are unused and stay 0)
//
// This package provides:
//
// - Bit: a color type that is either Black or White
// - BitModel: a color model converting standard Go colors to Bit
// - HorizontalMSB: an image.Image / draw.Image implementation over the packed bits
//
// Example usage:
//
//	img := image1bit.NewHorizontalMSB(image.Rect(0, 0, 200, 200))
//	img.SetBit(10, 20, image1bit.Black)
//	if img.BitAt(10, 20) == image1bit.Black {
//		// ...
//	}
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.White), image.Point{}, draw.Src)
package image1bit
