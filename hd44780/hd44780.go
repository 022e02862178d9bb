// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi HD44780 character LCD controller, and
// compatible chips, over a 4 or 8 bit parallel GPIO interface.
//
// A Dev is created from its pin assignments with New, which performs no I/O.
// Begin then configures the pins, runs the power-on reset handshake, and
// leaves the display on with a left to right, non-shifting entry mode.
//
// The controller's busy flag is never read. Every operation blocks for the
// worst case execution time of the instruction it issued.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

const packageName = "hd44780"

var (
	// ErrInvalidConfig is returned by New and Begin when the pin assignment
	// or the display geometry cannot be driven.
	ErrInvalidConfig = errors.New("hd44780: invalid configuration")
	// ErrNotImplemented wraps display.ErrNotImplemented.
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)
	// ErrNotBegun is returned by operations that talk to the controller
	// before Begin succeeded.
	ErrNotBegun = fmt.Errorf("%w: Begin not called", ErrInvalidConfig)
)

// Font selects the character matrix of the display.
type Font bool

const (
	// Font5x8 is the 5x8 dot matrix used by nearly every module.
	Font5x8 Font = false
	// Font5x10 is the 5x10 dot matrix. It is only honoured by the controller
	// in single line mode.
	Font5x10 Font = true
)

func (f Font) String() string {
	if f == Font5x10 {
		return "5x10"
	}
	return "5x8"
}

// Opts holds the pin assignment of a display.
//
// The data lines are either Data or Group, never both. Their count selects
// the interface width: 4 lines are wired to D4..D7 of the controller, 8 lines
// to D0..D7. Index 0 is always the least significant line.
type Opts struct {
	// Data are the data lines, least significant first.
	Data []gpio.PinOut
	// Group drives the data lines with one write per nibble or byte. Use it
	// with I/O expanders where every pin write is a bus transaction.
	Group gpio.Group
	// RS is the register select line. Mandatory.
	RS gpio.PinOut
	// E is the enable (strobe) line. Mandatory.
	E gpio.PinOut
	// RW is the read/write line. It is held low. Leave nil when the module has
	// R/W tied to ground.
	RW gpio.PinOut
	// Backlight is optional.
	Backlight display.DisplayBacklight
	// Sleep blocks for the given duration. It defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Dev is one HD44780 display session.
//
// The flag fields mirror the controller's registers. The controller is never
// read back, so every mutation of a flag is followed by re-sending the whole
// register.
//
// Implements periph.io/x/conn/v3/display.TextDisplay and
// display.DisplayBacklight.
type Dev struct {
	mu sync.Mutex

	bus       dataBus
	rs        gpio.PinOut
	e         gpio.PinOut
	rw        gpio.PinOut
	backlight display.DisplayBacklight
	sleep     func(time.Duration)

	cols       int
	rows       int
	rowOffsets [4]byte
	begun      bool

	function functionFlags
	control  controlFlags
	entry    entryFlags
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New returns a display session for the given pin assignment. It performs no
// I/O; call Begin to initialize the controller.
//
// It returns ErrInvalidConfig when the data lines are not exactly 4 or 8
// pins, or when RS or E are missing.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: no options", ErrInvalidConfig)
	}
	if opts.RS == nil || opts.E == nil {
		return nil, fmt.Errorf("%w: RS and E pins are required", ErrInvalidConfig)
	}
	var bus dataBus
	switch {
	case opts.Data != nil && opts.Group != nil:
		return nil, fmt.Errorf("%w: both Data and Group are set", ErrInvalidConfig)
	case opts.Group != nil:
		n := len(opts.Group.Pins())
		if n != 4 && n != 8 {
			return nil, fmt.Errorf("%w: %d data lines, want 4 or 8", ErrInvalidConfig, n)
		}
		bus = &groupBus{gr: opts.Group, n: n}
	default:
		n := len(opts.Data)
		if n != 4 && n != 8 {
			return nil, fmt.Errorf("%w: %d data lines, want 4 or 8", ErrInvalidConfig, n)
		}
		for i, p := range opts.Data {
			if p == nil {
				return nil, fmt.Errorf("%w: data line %d is nil", ErrInvalidConfig, i)
			}
		}
		bus = &pinBus{pins: append([]gpio.PinOut(nil), opts.Data...)}
	}

	dev := &Dev{
		bus:       bus,
		rs:        opts.RS,
		e:         opts.E,
		rw:        opts.RW,
		backlight: opts.Backlight,
		sleep:     opts.Sleep,
	}
	if dev.sleep == nil {
		dev.sleep = time.Sleep
	}
	if bus.width() == 8 {
		dev.function |= function8Bit
	}
	return dev, nil
}

// PinsFromGroup returns the pins of gr, in group order, as output pins.
func PinsFromGroup(gr gpio.Group) ([]gpio.PinOut, error) {
	pins := gr.Pins()
	out := make([]gpio.PinOut, len(pins))
	for i, p := range pins {
		po, ok := p.(gpio.PinOut)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an output pin", ErrInvalidConfig, p)
		}
		out[i] = po
	}
	return out, nil
}

// Begin sets the display geometry and font, configures the pins as outputs,
// runs the power-on reset handshake and turns the display on with the cursor
// hidden, autoscroll off and left to right text flow.
//
// rows must be 1 to 4 and the display may not exceed the 80 characters of
// display data RAM. Begin does not clear the display.
func (dev *Dev) Begin(cols, rows int, font Font) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if rows < 1 || rows > len(dev.rowOffsets) || cols < 1 || cols*rows > ddramSize {
		return fmt.Errorf("%w: %dx%d display", ErrInvalidConfig, cols, rows)
	}
	dev.cols = cols
	dev.rows = rows
	dev.begun = false

	if font == Font5x10 {
		dev.function |= function5x10
	} else {
		dev.function &^= function5x10
	}
	if rows == 1 {
		dev.function &^= function2Line
	} else {
		dev.function |= function2Line
	}

	if err := dev.setupPins(); err != nil {
		return wrap(err)
	}
	if err := dev.initialize(); err != nil {
		return wrap(err)
	}
	dev.rowOffsets = [4]byte{0x00, 0x40, byte(cols), 0x40 + byte(cols)}
	dev.begun = true

	dev.control = displayOn
	if err := dev.sendControl(); err != nil {
		return wrap(err)
	}
	dev.entry &^= entryShift
	if err := dev.sendEntry(); err != nil {
		return wrap(err)
	}
	dev.entry |= entryLeft
	if err := dev.sendEntry(); err != nil {
		return wrap(err)
	}
	glog.V(1).Infof("%s: ready %dx%d, %d-bit, font %s", packageName, cols, rows, dev.bus.width(), font)
	return nil
}

// setupPins drives every line low, which configures it as an output.
func (dev *Dev) setupPins() error {
	if err := dev.e.Out(gpio.Low); err != nil {
		return err
	}
	if err := dev.rs.Out(gpio.Low); err != nil {
		return err
	}
	if dev.rw != nil {
		if err := dev.rw.Out(gpio.Low); err != nil {
			return err
		}
	}
	return dev.bus.setup()
}

// ready returns ErrNotBegun until Begin succeeded. dev.mu must be held.
func (dev *Dev) ready() error {
	if !dev.begun {
		return ErrNotBegun
	}
	return nil
}

// Cols returns the number of columns of the display.
func (dev *Dev) Cols() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.cols
}

// Rows returns the number of rows of the display.
func (dev *Dev) Rows() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.rows
}

// RowOffsets returns the display data RAM address of the first column of
// each row.
func (dev *Dev) RowOffsets() [4]byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.rowOffsets
}

func (dev *Dev) String() string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return fmt.Sprintf("%s{%s, %d-bit, Rows: %d, Cols: %d}", packageName, dev.bus, dev.bus.width(), dev.rows, dev.cols)
}

// Halt clears the display, turns it and the backlight off, and halts the data
// lines. Before Begin only the backlight and the data lines are touched.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Display(false)
	if dev.backlight != nil {
		_ = dev.backlight.Backlight(0)
	}
	return wrap(dev.bus.halt())
}

var _ conn.Resource = &Dev{}
