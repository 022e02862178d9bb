// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23xxx drives the output side of the Microchip MCP23008 I²C GPIO
// expander, the chip on the I²C half of the Adafruit LCD backpack.
//
// Every pin powers up as an input. A pin is switched to output by its first
// write and stays one. The output latch is shadowed so that one pin or a
// group can change in a single register write without disturbing the
// others.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001919F.pdf
package mcp23xxx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// Variant is the chip model.
type Variant string

const (
	// MCP23008 is the 8 pin I²C variant.
	MCP23008 Variant = "MCP23008"

	// DefaultAddress is the address with A0..A2 grounded.
	DefaultAddress uint16 = 0x20
)

// MCP23008 registers, with IOCON.BANK at its power-on value.
const (
	regIODIR byte = 0x00
	regGPIO  byte = 0x09
	regOLAT  byte = 0x0a
)

// ErrNotImplemented is returned for PWM and edge detection.
var ErrNotImplemented = errors.New("mcp23xxx: not implemented")

// Dev is an MCP23008 expander.
type Dev struct {
	// Pins are the expander's pins, numbered GP0 up.
	Pins []gpio.PinOut

	mu      sync.Mutex
	d       *i2c.Dev
	variant Variant
	iodir   byte
	olat    byte
	written bool
}

// NewI2C returns an expander at address on bus. No I/O is performed. Pins
// are named "<variant>_<address>_GP<n>".
func NewI2C(bus i2c.Bus, variant Variant, address uint16) (*Dev, error) {
	if variant != MCP23008 {
		return nil, fmt.Errorf("mcp23xxx: unsupported variant %q", variant)
	}
	// Power-on state: every pin an input, latch cleared.
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: address}, variant: variant, iodir: 0xff}
	dev.Pins = make([]gpio.PinOut, 8)
	for n := range dev.Pins {
		dev.Pins[n] = &Pin{dev: dev, number: n, name: fmt.Sprintf("%s_GP%d", dev, n)}
	}
	return dev, nil
}

// Group returns the given pins as a gpio.Group. Bit i of a group value maps
// to the i-th pin number passed here.
func (dev *Dev) Group(numbers ...int) (gpio.Group, error) {
	for _, n := range numbers {
		if n < 0 || n >= len(dev.Pins) {
			return nil, fmt.Errorf("mcp23xxx: pin %d out of range", n)
		}
	}
	return &Group{dev: dev, numbers: append([]int(nil), numbers...)}, nil
}

// Halt does nothing; the pins keep their last level.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s_%x", dev.variant, dev.d.Addr)
}

// write makes the pins in mask outputs, then drives them to value. The latch
// is only rewritten when its content changes.
func (dev *Dev) write(value, mask byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.iodir&mask != 0 {
		dir := dev.iodir &^ mask
		if err := dev.d.Tx([]byte{regIODIR, dir}, nil); err != nil {
			return fmt.Errorf("mcp23xxx: %w", err)
		}
		glog.V(2).Infof("%s: IODIR=0x%02x", dev, dir)
		dev.iodir = dir
	}
	next := dev.olat&^mask | value&mask
	if dev.written && next == dev.olat {
		return nil
	}
	if err := dev.d.Tx([]byte{regOLAT, next}, nil); err != nil {
		return fmt.Errorf("mcp23xxx: %w", err)
	}
	dev.olat = next
	dev.written = true
	return nil
}

// read samples the port. Outputs read back the level they drive.
func (dev *Dev) read() (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var r [1]byte
	if err := dev.d.Tx([]byte{regGPIO}, r[:]); err != nil {
		return 0, fmt.Errorf("mcp23xxx: %w", err)
	}
	return r[0], nil
}
