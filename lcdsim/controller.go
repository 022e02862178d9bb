// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates an HD44780 character LCD controller at the pin
// level.
//
// A Controller exposes its RS, RW, E, data and backlight lines as
// gpio.PinOut, so any driver written against periph can be pointed at it.
// The bus is latched on the falling edge of E exactly like the real chip:
// the controller powers up with an 8-bit interface, switches to 4-bit mode
// on a function set with DL=0, and from then on assembles every byte from
// two nibbles, high first.
//
// Execution times are checked against a virtual clock advanced by Sleep.
// Pass Controller.Sleep as the driver's sleep function and every instruction
// latched while the previous one is still executing is reported by
// Violations.
//
// The contents can be inspected as text, rendered as an image, or drawn on
// a terminal.
package lcdsim

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

const (
	ddramSize  = 0x80
	cgramSize  = 0x40
	lineLength = 40
	line2Base  = 0x40

	execDefault  = 37 * time.Microsecond
	execClear    = 1520 * time.Microsecond
	powerOnDelay = 40 * time.Millisecond
)

// The reset handshake requires longer waits after the first two function
// sets than their nominal execution time.
var resetWaits = [...]time.Duration{4100 * time.Microsecond, 100 * time.Microsecond}

// Opts configures a Controller.
type Opts struct {
	// Cols and Rows are the visible geometry of the glass.
	Cols, Rows int
	// DataLines is 4 when only D4..D7 are brought out, 8 otherwise.
	DataLines int
}

// Transfer is one byte executed by the controller.
type Transfer struct {
	// Data is set for writes to the data register, clear for instructions.
	Data  bool
	Value byte
}

func (t Transfer) String() string {
	if t.Data {
		return fmt.Sprintf("data 0x%02x", t.Value)
	}
	return fmt.Sprintf("cmd 0x%02x", t.Value)
}

// Controller is an emulated HD44780.
type Controller struct {
	mu sync.Mutex

	cols, rows int
	lines      int
	pins       []*Pin

	// Line levels.
	rs, rw, e, backlight bool
	bus                  byte

	// Interface state.
	eightBit    bool
	havePending bool
	pending     byte

	// Registers.
	twoLine, font5x10    bool
	displayOn            bool
	cursorOn, blinkOn    bool
	increment, shiftMode bool
	inCGRAM              bool
	ac                   byte
	shift                int
	ddram                [ddramSize]byte
	cgram                [cgramSize]byte

	// Bookkeeping.
	now        time.Duration
	busyUntil  time.Duration
	resetStep  int
	strobes    int
	transfers  []Transfer
	violations []string
}

// New returns a controller in its power-on reset state: 8-bit interface,
// one line, display off, increment mode and DDRAM filled with spaces.
func New(opts *Opts) (*Controller, error) {
	if opts.DataLines != 4 && opts.DataLines != 8 {
		return nil, fmt.Errorf("lcdsim: %d data lines, want 4 or 8", opts.DataLines)
	}
	if opts.Rows < 1 || opts.Rows > 4 || opts.Cols < 1 || opts.Cols*opts.Rows > 80 {
		return nil, fmt.Errorf("lcdsim: unsupported %dx%d geometry", opts.Cols, opts.Rows)
	}
	c := &Controller{
		cols:      opts.Cols,
		rows:      opts.Rows,
		lines:     opts.DataLines,
		eightBit:  true,
		increment: true,
		busyUntil: powerOnDelay,
	}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	c.pins = []*Pin{
		{c: c, line: lineRS, name: "LCD_RS"},
		{c: c, line: lineRW, name: "LCD_RW"},
		{c: c, line: lineE, name: "LCD_E"},
		{c: c, line: lineBacklight, name: "LCD_BL"},
	}
	first := 8 - c.lines
	for i := range c.lines {
		d := first + i
		c.pins = append(c.pins, &Pin{c: c, line: lineD0 + d, name: fmt.Sprintf("LCD_D%d", d)})
	}
	return c, nil
}

// RS returns the register select line.
func (c *Controller) RS() gpio.PinOut { return c.pins[0] }

// RW returns the read/write line.
func (c *Controller) RW() gpio.PinOut { return c.pins[1] }

// E returns the enable line.
func (c *Controller) E() gpio.PinOut { return c.pins[2] }

// Backlight returns the backlight switch.
func (c *Controller) Backlight() gpio.PinOut { return c.pins[3] }

// Data returns the i-th wired data line, least significant first. With 4
// lines, Data(0) is D4.
func (c *Controller) Data(i int) gpio.PinOut { return c.pins[4+i] }

// DataPins returns every wired data line, least significant first.
func (c *Controller) DataPins() []gpio.PinOut {
	out := make([]gpio.PinOut, c.lines)
	for i := range out {
		out[i] = c.Data(i)
	}
	return out
}

// Sleep advances the virtual clock. It does not block.
func (c *Controller) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

func (c *Controller) setLine(line int, l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case line == lineRS:
		c.rs = bool(l)
	case line == lineRW:
		c.rw = bool(l)
	case line == lineBacklight:
		c.backlight = bool(l)
	case line == lineE:
		falling := c.e && !bool(l)
		c.e = bool(l)
		if falling {
			c.latch()
		}
	default:
		bit := byte(1) << (line - lineD0)
		if l {
			c.bus |= bit
		} else {
			c.bus &^= bit
		}
	}
}

// latch samples the bus on a falling edge of E.
func (c *Controller) latch() {
	c.strobes++
	if c.rw {
		// Reads are not emulated; a read cycle has no side effect.
		return
	}
	if c.eightBit {
		c.execute(c.rs, c.bus)
		return
	}
	nibble := c.bus >> 4
	if !c.havePending {
		c.pending = nibble
		c.havePending = true
		return
	}
	c.havePending = false
	c.execute(c.rs, c.pending<<4|nibble)
}

func (c *Controller) execute(data bool, v byte) {
	t := Transfer{Data: data, Value: v}
	if c.now < c.busyUntil {
		msg := fmt.Sprintf("%s at %v while busy until %v", t, c.now, c.busyUntil)
		glog.V(1).Infof("lcdsim: %s", msg)
		c.violations = append(c.violations, msg)
	}
	c.transfers = append(c.transfers, t)
	wait := execDefault
	if data {
		c.writeData(v)
	} else {
		wait = c.instruction(v)
	}
	c.busyUntil = c.now + wait
}

func (c *Controller) instruction(v byte) time.Duration {
	switch {
	case v&0x80 != 0:
		c.ac = v & 0x7f
		c.inCGRAM = false
	case v&0x40 != 0:
		c.ac = v & 0x3f
		c.inCGRAM = true
	case v&0x20 != 0:
		c.eightBit = v&0x10 != 0
		c.twoLine = v&0x08 != 0
		c.font5x10 = v&0x04 != 0
		c.havePending = false
		if c.resetStep < len(resetWaits) {
			c.resetStep++
			return resetWaits[c.resetStep-1]
		}
	case v&0x10 != 0:
		right := v&0x04 != 0
		if v&0x08 != 0 {
			if right {
				c.shift++
			} else {
				c.shift--
			}
		} else {
			c.step(right)
		}
	case v&0x08 != 0:
		c.displayOn = v&0x04 != 0
		c.cursorOn = v&0x02 != 0
		c.blinkOn = v&0x01 != 0
	case v&0x04 != 0:
		c.increment = v&0x02 != 0
		c.shiftMode = v&0x01 != 0
	case v&0x02 != 0:
		c.ac = 0
		c.inCGRAM = false
		c.shift = 0
		return execClear
	case v&0x01 != 0:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.ac = 0
		c.inCGRAM = false
		c.shift = 0
		c.increment = true
		return execClear
	}
	return execDefault
}

func (c *Controller) writeData(v byte) {
	if c.inCGRAM {
		c.cgram[c.ac&(cgramSize-1)] = v
		c.step(c.increment)
		return
	}
	c.ddram[c.ac] = v
	c.step(c.increment)
	if c.shiftMode {
		// The display follows the cursor so it appears to stand still.
		if c.increment {
			c.shift--
		} else {
			c.shift++
		}
	}
}

// step moves the address counter by one, wrapping the way the chip does.
func (c *Controller) step(forward bool) {
	if c.inCGRAM {
		if forward {
			c.ac = (c.ac + 1) & (cgramSize - 1)
		} else {
			c.ac = (c.ac - 1) & (cgramSize - 1)
		}
		return
	}
	if !c.twoLine {
		c.ac = byte(wrap(int(c.ac)+delta(forward), 2*lineLength))
		return
	}
	base := c.ac & line2Base
	pos := int(c.ac&^line2Base) + delta(forward)
	switch {
	case pos >= lineLength:
		base ^= line2Base
		pos = 0
	case pos < 0:
		base ^= line2Base
		pos = lineLength - 1
	}
	c.ac = base | byte(pos)
}

func delta(forward bool) int {
	if forward {
		return 1
	}
	return -1
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// cellAddr returns the DDRAM address shown at row, col.
func (c *Controller) cellAddr(row, col int) (byte, bool) {
	if !c.twoLine {
		if row != 0 {
			return 0, false
		}
		return byte(wrap(col-c.shift, 2*lineLength)), true
	}
	base := byte(0)
	if row%2 == 1 {
		base = line2Base
	}
	pos := wrap((row/2)*c.cols+col-c.shift, lineLength)
	return base + byte(pos), true
}

// Text returns the character codes visible on each row, with display shift
// applied. Rows that the current line mode cannot address are blank.
// Custom characters appear as codes 0 to 15.
func (c *Controller) Text() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, c.rows)
	for r := range c.rows {
		b := make([]byte, c.cols)
		for col := range c.cols {
			b[col] = ' '
			if addr, ok := c.cellAddr(r, col); ok {
				b[col] = c.ddram[addr]
			}
		}
		out[r] = string(b)
	}
	return out
}

// Transfers returns every byte executed since power-on.
func (c *Controller) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transfer(nil), c.transfers...)
}

// ResetLog clears the transfer log, the strobe count and the violations.
func (c *Controller) ResetLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = nil
	c.violations = nil
	c.strobes = 0
}

// Strobes returns the number of E falling edges seen.
func (c *Controller) Strobes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strobes
}

// Violations describes every transfer latched before the previous
// instruction had finished executing.
func (c *Controller) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}

// Glyph returns the 8 rows of CGRAM character slot (0-7).
func (c *Controller) Glyph(slot int) [8]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var g [8]byte
	copy(g[:], c.cgram[(slot&7)*8:])
	return g
}

// Address returns the address counter and whether it points into CGRAM.
func (c *Controller) Address() (ac byte, cgram bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ac, c.inCGRAM
}

// Shift returns the display shift, positive to the right.
func (c *Controller) Shift() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shift
}

// EightBit reports the interface data length.
func (c *Controller) EightBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eightBit
}

// TwoLine reports the display line mode.
func (c *Controller) TwoLine() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoLine
}

// Font5x10 reports the selected font.
func (c *Controller) Font5x10() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.font5x10
}

// DisplayOn reports whether the display is on.
func (c *Controller) DisplayOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayOn
}

// CursorOn reports whether the underline cursor is shown.
func (c *Controller) CursorOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursorOn
}

// BlinkOn reports whether the cursor blinks.
func (c *Controller) BlinkOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blinkOn
}

// Increment reports whether the address counter moves right on writes.
func (c *Controller) Increment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.increment
}

// ShiftOnWrite reports whether the display shifts on every write.
func (c *Controller) ShiftOnWrite() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shiftMode
}

// BacklightOn reports the level of the backlight line.
func (c *Controller) BacklightOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlight
}

func (c *Controller) String() string {
	return fmt.Sprintf("lcdsim{%dx%d, %d data lines}", c.cols, c.rows, c.lines)
}
