// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// AutoScroll turns autoscroll on or off.
func (dev *Dev) AutoScroll(enabled bool) error {
	if enabled {
		return dev.AutoscrollOn()
	}
	return dev.AutoscrollOff()
}

// Cursor sets the cursor mode. You can pass multiple arguments, they are
// applied in order.
//
//	Cursor(display.CursorOff, display.CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			dev.control &^= cursorOn | blinkOn
		case display.CursorUnderline:
			dev.control |= cursorOn
		case display.CursorBlink, display.CursorBlock:
			// The blinking cursor is a full 5x8 block.
			dev.control |= blinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor: %d", packageName, mode)
		}
	}
	return wrap(dev.sendControl())
}

// Display turns the display on or off.
func (dev *Dev) Display(on bool) error {
	return dev.setControl(displayOn, on)
}

// MinCol returns the first column for MoveTo.
func (dev *Dev) MinCol() int {
	return 1
}

// MinRow returns the first row for MoveTo.
func (dev *Dev) MinRow() int {
	return 1
}

// Move moves the cursor forward or backward by one position.
func (dev *Dev) Move(dir display.CursorDirection) error {
	var val = cmdCursorShift
	switch dir {
	case display.Backward:
		val |= moveLeft
	case display.Forward:
		val |= moveRight
	default:
		return ErrNotImplemented
	}
	return dev.SendCommand(val)
}

// MoveTo moves the cursor to the one based row and col. Unlike SetCursor it
// rejects positions outside the display.
func (dev *Dev) MoveTo(row, col int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s.MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return wrap(dev.setCursor(col-1, row-1))
}

// Write writes p to display data RAM at the cursor. On error, n is the number
// of bytes that reached the controller.
func (dev *Dev) Write(p []byte) (n int, err error) {
	return dev.write(string(p))
}

// WriteString is Write for a string.
func (dev *Dev) WriteString(text string) (n int, err error) {
	return dev.write(text)
}

// Backlight turns the backlight off for an intensity of 0, on otherwise. It
// returns ErrNotImplemented when no backlight was configured. It does not
// need Begin.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.backlight == nil {
		return ErrNotImplemented
	}
	return wrap(dev.backlight.Backlight(intensity))
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
