// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Geometry in dots. A character cell is 5x8 dots plus a one dot gap.
const (
	cellW   = 6
	cellH   = 9
	border  = 2
	footerH = 12
)

var (
	bezel      = color.NRGBA{0x20, 0x20, 0x20, 0xff}
	glassOn    = color.NRGBA{0x9a, 0xc8, 0x2a, 0xff}
	glassOff   = color.NRGBA{0x4c, 0x5c, 0x20, 0xff}
	dotLit     = color.NRGBA{0x16, 0x24, 0x08, 0xff}
	dotGhostOn = color.NRGBA{0x8c, 0xb8, 0x24, 0xff}
	footerText = color.NRGBA{0xe0, 0xe0, 0xe0, 0xff}
)

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

func mono() (*truetype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Bounds returns the size of Image at the given scale.
func (c *Controller) Bounds(scale int) image.Rectangle {
	return image.Rect(0, 0, (c.cols*cellW+2*border-1)*scale, (c.rows*cellH+2*border-1)*scale)
}

// Image renders the glass as seen by a user: dot matrix characters, the
// cursor, and the backlight. Every dot is scale pixels wide. A blinking
// cursor is drawn in its visible phase.
func (c *Controller) Image(scale int) image.Image {
	if scale < 1 {
		scale = 1
	}
	r := c.Bounds(scale)
	dc := gg.NewContext(r.Dx(), r.Dy())
	c.draw(dc, scale)
	return dc.Image()
}

func (c *Controller) draw(dc *gg.Context, scale int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := float64(scale)
	glass := glassOff
	ghost := glassOff
	if c.backlight {
		glass = glassOn
		ghost = dotGhostOn
	}
	r := c.Bounds(scale)
	dc.SetColor(glass)
	dc.DrawRectangle(0, 0, float64(r.Dx()), float64(r.Dy()))
	dc.Fill()

	curAddr, curVisible := c.cursorCell()
	for row := range c.rows {
		for col := range c.cols {
			var dots [8]byte
			addr, ok := c.cellAddr(row, col)
			if ok && c.displayOn {
				dots = c.rowsOf(c.ddram[addr])
				if curVisible && addr == curAddr {
					if c.blinkOn {
						dots = [8]byte{0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f}
					}
					if c.cursorOn {
						dots[7] = 0x1f
					}
				}
			}
			x0 := float64(border+col*cellW) * s
			y0 := float64(border+row*cellH) * s
			for y, bits := range dots {
				for x := range 5 {
					if bits&(0x10>>x) != 0 {
						dc.SetColor(dotLit)
					} else {
						dc.SetColor(ghost)
					}
					dc.DrawRectangle(x0+float64(x)*s, y0+float64(y)*s, dotSize(s), dotSize(s))
					dc.Fill()
				}
			}
		}
	}
}

// dotSize leaves a hairline between dots once they are big enough to see it.
func dotSize(s float64) float64 {
	if s >= 3 {
		return s - 1
	}
	return s
}

func (c *Controller) cursorCell() (byte, bool) {
	if c.inCGRAM || !(c.cursorOn || c.blinkOn) {
		return 0, false
	}
	return c.ac, true
}

// Snapshot renders the glass on a bezel, with a footer describing the
// controller state, in Go Mono.
func (c *Controller) Snapshot(scale int) (image.Image, error) {
	if scale < 1 {
		scale = 1
	}
	f, err := mono()
	if err != nil {
		return nil, fmt.Errorf("lcdsim: %w", err)
	}
	glass := c.Image(scale)
	gr := glass.Bounds()
	pad := border * scale
	dc := gg.NewContext(gr.Dx()+2*pad, gr.Dy()+2*pad+footerH*scale)
	dc.SetColor(bezel)
	dc.Clear()
	dc.DrawImage(glass, pad, pad)

	face := truetype.NewFace(f, &truetype.Options{Size: float64(7 * scale), DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetColor(footerText)
	dc.DrawString(c.status(), float64(pad), float64(gr.Dy()+pad+(footerH-3)*scale))
	return dc.Image(), nil
}

// WritePNG encodes Snapshot as PNG.
func (c *Controller) WritePNG(w io.Writer, scale int) error {
	img, err := c.Snapshot(scale)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}

// status summarises the registers in one line.
func (c *Controller) status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	width, lines, matrix := 4, 1, "5x8"
	if c.eightBit {
		width = 8
	}
	if c.twoLine {
		lines = 2
	}
	if c.font5x10 {
		matrix = "5x10"
	}
	ram := "DD"
	if c.inCGRAM {
		ram = "CG"
	}
	return fmt.Sprintf("%d-bit %d-line %s  %sRAM 0x%02x  shift %d  D%d C%d B%d",
		width, lines, matrix, ram, c.ac, c.shift, b2i(c.displayOn), b2i(c.cursorOn), b2i(c.blinkOn))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
