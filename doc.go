// Package ssd1681 controls a SSD1681 monochrome e-paper display via SPI.
//
// The SSD1681 drives bistable 1.54" panels of up to 200×200 pixels. This driver
// implements the display.Drawer interface from periph.io and exposes the raw
// partial and full update paths used by the flush engine in package flush.
//
// # Display Characteristics
//
// - 1-bit monochrome, one bit per pixel, MSB first, a set bit is black
// - Bistable: the image persists with the panel powered off
// - Partial (windowed) updates are fast but leave ghosting over time
// - Full updates flash the panel and clear ghosting
// - RAM windows are addressed in 8 pixel columns
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	CLK         → SPI Clock (SCLK)
//	DIN         → SPI Data (MOSI)
//	CS          → SPI Chip Select
//	DC          → GPIO (any available pin)
//	RST         → GPIO (optional, needed for deep sleep)
//	BUSY        → GPIO input (required)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/ssd1681"
//		"periph.io/x/devices/v3/ssd1681/image1bit"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//		port, _ := spireg.Open("")
//		dev, _ := ssd1681.NewSPI(port, gpioreg.ByName("GPIO25"), &ssd1681.Opts{
//			RST:  gpioreg.ByName("GPIO17"),
//			Busy: gpioreg.ByName("GPIO24"),
//		})
//		defer dev.Halt()
//
//		img := image1bit.NewHorizontalMSB(dev.Bounds())
//		img.SetBit(10, 10, image1bit.Black)
//		dev.Write(img.Pix)
//	}
//
// # Update Paths
//
// PartialUpdate(r, pix) writes a byte-aligned window and runs the differential
// waveform. FullUpdate(pix) writes the whole frame and runs the full waveform.
// Hibernate and Reinit bracket a full refresh when the panel must be brought
// back from deep sleep; PowerOff cuts the drive voltages between updates.
//
// # Datasheet
//
// https://www.good-display.com/companyfile/101.html
package ssd1681
