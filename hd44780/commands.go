// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"time"
)

type functionFlags byte
type controlFlags byte
type entryFlags byte

// Instructions.
const (
	cmdClearDisplay   byte = 0x01
	cmdReturnHome     byte = 0x02
	cmdEntryModeSet   byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdCursorShift    byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetCGRAMAddr   byte = 0x40
	cmdSetDDRAMAddr   byte = 0x80
)

// Flags of cmdEntryModeSet.
const (
	entryShift entryFlags = 0x01
	entryLeft  entryFlags = 0x02
)

// Flags of cmdDisplayControl.
const (
	blinkOn   controlFlags = 0x01
	cursorOn  controlFlags = 0x02
	displayOn controlFlags = 0x04
)

// Flags of cmdCursorShift.
const (
	moveLeft    byte = 0x00
	moveRight   byte = 0x04
	displayMove byte = 0x08
)

// Flags of cmdFunctionSet.
const (
	function5x10  functionFlags = 0x04
	function2Line functionFlags = 0x08
	function8Bit  functionFlags = 0x10
)

const (
	// Execution time of clear and home, with margin over the 1.52ms of the
	// datasheet.
	delayClear = 2 * time.Millisecond
	ddramSize  = 80
	glyphRows  = 8
)

// Clear blanks the display and moves the cursor to the first position.
func (dev *Dev) Clear() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	return wrap(dev.clear())
}

func (dev *Dev) clear() error {
	if err := dev.send(cmdClearDisplay, false); err != nil {
		return err
	}
	dev.sleep(delayClear)
	return nil
}

// Home moves the cursor to the first position and undoes any display shift.
func (dev *Dev) Home() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	return wrap(dev.home())
}

func (dev *Dev) home() error {
	if err := dev.send(cmdReturnHome, false); err != nil {
		return err
	}
	dev.sleep(delayClear)
	return nil
}

// DisplayOn turns the display on. Display data RAM is preserved while off.
func (dev *Dev) DisplayOn() error {
	return dev.setControl(displayOn, true)
}

// DisplayOff turns the display off.
func (dev *Dev) DisplayOff() error {
	return dev.setControl(displayOn, false)
}

// CursorOn shows the underline cursor.
func (dev *Dev) CursorOn() error {
	return dev.setControl(cursorOn, true)
}

// CursorOff hides the underline cursor.
func (dev *Dev) CursorOff() error {
	return dev.setControl(cursorOn, false)
}

// BlinkOn makes the character at the cursor blink.
func (dev *Dev) BlinkOn() error {
	return dev.setControl(blinkOn, true)
}

// BlinkOff stops the blinking cursor.
func (dev *Dev) BlinkOff() error {
	return dev.setControl(blinkOn, false)
}

func (dev *Dev) setControl(flag controlFlags, on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	if on {
		dev.control |= flag
	} else {
		dev.control &^= flag
	}
	return wrap(dev.sendControl())
}

func (dev *Dev) sendControl() error {
	return dev.send(cmdDisplayControl|byte(dev.control), false)
}

// AutoscrollOn shifts the whole display on every character written, so the
// cursor appears fixed and the text moves.
func (dev *Dev) AutoscrollOn() error {
	return dev.setEntry(entryShift, true)
}

// AutoscrollOff stops shifting the display on writes.
func (dev *Dev) AutoscrollOff() error {
	return dev.setEntry(entryShift, false)
}

// FlowLeftToRight makes the cursor advance to the right after every write.
func (dev *Dev) FlowLeftToRight() error {
	return dev.setEntry(entryLeft, true)
}

// FlowRightToLeft makes the cursor advance to the left after every write.
func (dev *Dev) FlowRightToLeft() error {
	return dev.setEntry(entryLeft, false)
}

func (dev *Dev) setEntry(flag entryFlags, on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	if on {
		dev.entry |= flag
	} else {
		dev.entry &^= flag
	}
	return wrap(dev.sendEntry())
}

func (dev *Dev) sendEntry() error {
	return dev.send(cmdEntryModeSet|byte(dev.entry), false)
}

// ScrollLeft shifts the display contents one position to the left without
// changing display data RAM.
func (dev *Dev) ScrollLeft() error {
	return dev.SendCommand(cmdCursorShift | displayMove | moveLeft)
}

// ScrollRight shifts the display contents one position to the right.
func (dev *Dev) ScrollRight() error {
	return dev.SendCommand(cmdCursorShift | displayMove | moveRight)
}

// SetCursor moves the cursor to the zero based col and row. Values outside
// the display are clamped to the nearest edge.
func (dev *Dev) SetCursor(col, row int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	return wrap(dev.setCursor(col, row))
}

func (dev *Dev) setCursor(col, row int) error {
	row = clamp(row, dev.rows-1)
	col = clamp(col, dev.cols-1)
	return dev.send(cmdSetDDRAMAddr|(byte(col)+dev.rowOffsets[row]), false)
}

func clamp(v, hi int) int {
	return max(0, min(v, hi))
}

// DefineGlyph stores a custom 5x8 character in one of the 8 CGRAM slots.
// Only the low 5 bits of every bitmap row are displayed. Write the character
// code slot (0-7) to show it.
//
// The address counter is left in CGRAM; call SetCursor or Home before
// printing.
func (dev *Dev) DefineGlyph(slot byte, bitmap [8]byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	slot &= 0x07
	if err := dev.send(cmdSetCGRAMAddr|slot<<3, false); err != nil {
		return wrap(err)
	}
	for _, row := range bitmap[:glyphRows] {
		if err := dev.send(row, true); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Print writes every byte of text to display data RAM at the cursor. The
// length of text is explicit, so NUL bytes are written as character 0, the
// first custom glyph.
//
// There is no wrapping: the controller decides where characters past the
// end of a row land.
func (dev *Dev) Print(text string) error {
	_, err := dev.write(text)
	return err
}

// write sends text to the data register byte by byte and returns how many
// bytes reached the controller.
func (dev *Dev) write(text string) (n int, err error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err = dev.ready(); err != nil {
		return 0, err
	}
	for ; n < len(text); n++ {
		if err = dev.send(text[n], true); err != nil {
			return n, wrap(err)
		}
	}
	return n, nil
}

// SendCommand writes v to the instruction register.
func (dev *Dev) SendCommand(v byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	return wrap(dev.send(v, false))
}

// SendData writes v to the data register.
func (dev *Dev) SendData(v byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.ready(); err != nil {
		return err
	}
	return wrap(dev.send(v, true))
}
