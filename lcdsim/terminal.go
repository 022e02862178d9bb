// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options of a Terminal.
type TerminalOpts struct {
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Terminal draws a Controller's glass on an ANSI terminal, one colored
// block per dot.
//
// Useful while you are waiting for your display to come by mail.
type Terminal struct {
	w       io.Writer
	c       *Controller
	palette ansi256.Palette

	lines int
	buf   bytes.Buffer
}

// NewTerminal returns a Terminal showing c.
func NewTerminal(c *Controller, opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Terminal{w: w, c: c, palette: *p}
}

func (t *Terminal) String() string {
	return "Terminal{" + t.c.String() + "}"
}

// Refresh redraws the glass over the previous drawing.
func (t *Terminal) Refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	img := t.c.Image(1)
	r := img.Bounds()
	t.buf.Reset()
	if t.lines != 0 {
		_, _ = fmt.Fprintf(&t.buf, "\033[%dA", t.lines)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		_, _ = t.buf.WriteString("\r\033[0m")
		for x := r.Min.X; x < r.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			c := color.NRGBA{byte(r16 >> 8), byte(g16 >> 8), byte(b16 >> 8), 255}
			_, _ = io.WriteString(&t.buf, t.palette.Block(c))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	t.lines = r.Dy()
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the shell is not corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m"))
	return err
}
