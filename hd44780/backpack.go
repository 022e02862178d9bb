// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"github.com/GermanBionicSystems/charlcd/mcp23xxx"
	"github.com/GermanBionicSystems/charlcd/nxp74hc595"
	"github.com/GermanBionicSystems/charlcd/pcf857x"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// Expander pin numbers of the common PCF8574 "LCD1602/LCD2004" I²C backpack.
const (
	pcfRS        = 0
	pcfRW        = 1
	pcfE         = 2
	pcfBacklight = 3
	pcfD4        = 4
	pcfD5        = 5
	pcfD6        = 6
	pcfD7        = 7
)

// MCP23008 pins of the Adafruit I²C/SPI backpack, I²C side.
const (
	afRS        = 1
	afE         = 2
	afD4        = 3
	afD5        = 4
	afD6        = 5
	afD7        = 6
	afBacklight = 7
)

// Shift register outputs of the Adafruit I²C/SPI backpack, SPI side. The
// data lines are in reverse order from the I²C side.
const (
	sprRS        = 1
	sprE         = 2
	sprD4        = 6
	sprD5        = 5
	sprD6        = 4
	sprD7        = 3
	sprBacklight = 7
)

// NewPCF857xBackpack returns a started display behind a PCF8574 I²C
// backpack, as sold with most LCD1602 and LCD2004 modules.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// The backpack wires D4..D7 only, so the display runs in 4-bit mode with
// one I²C write per nibble and one per control line change.
func NewPCF857xBackpack(bus i2c.Bus, address uint16, cols, rows int, font Font) (*Dev, error) {
	pcf, err := pcf857x.New(bus, address, pcf857x.PCF8574)
	if err != nil {
		return nil, wrap(err)
	}
	gr, err := pcf.Group(pcfD4, pcfD5, pcfD6, pcfD7)
	if err != nil {
		return nil, wrap(err)
	}
	dev, err := New(&Opts{
		Group:     gr,
		RS:        pcf.Pins[pcfRS],
		E:         pcf.Pins[pcfE],
		RW:        pcf.Pins[pcfRW],
		Backlight: NewBacklight(pcf.Pins[pcfBacklight]),
	})
	if err != nil {
		return nil, err
	}
	if err = dev.Begin(cols, rows, font); err != nil {
		return nil, err
	}
	return dev, wrap(dev.Backlight(0xff))
}

// NewAdafruitI2CBackpack returns a started display behind the I²C side of
// the Adafruit I²C/SPI backpack, an MCP23008 expander.
//
// # Product Information
//
// https://www.adafruit.com/product/292
//
// R/W is tied to ground on this backpack. The default address is 0x20.
func NewAdafruitI2CBackpack(bus i2c.Bus, address uint16, cols, rows int, font Font) (*Dev, error) {
	mcp, err := mcp23xxx.NewI2C(bus, mcp23xxx.MCP23008, address)
	if err != nil {
		return nil, wrap(err)
	}
	gr, err := mcp.Group(afD4, afD5, afD6, afD7)
	if err != nil {
		return nil, wrap(err)
	}
	dev, err := New(&Opts{
		Group:     gr,
		RS:        mcp.Pins[afRS],
		E:         mcp.Pins[afE],
		Backlight: NewBacklight(mcp.Pins[afBacklight]),
	})
	if err != nil {
		return nil, err
	}
	if err = dev.Begin(cols, rows, font); err != nil {
		return nil, err
	}
	return dev, wrap(dev.Backlight(0xff))
}

// NewSPIBackpack returns a started display behind the SPI side of the
// Adafruit I²C/SPI backpack, a 74HC595 shift register.
//
// # Product Information
//
// https://www.adafruit.com/product/292
func NewSPIBackpack(conn spi.Conn, cols, rows int, font Font) (*Dev, error) {
	chip, err := nxp74hc595.New(conn)
	if err != nil {
		return nil, wrap(err)
	}
	gr, err := chip.Group(sprD4, sprD5, sprD6, sprD7)
	if err != nil {
		return nil, wrap(err)
	}
	dev, err := New(&Opts{
		Group:     gr,
		RS:        chip.Pins[sprRS],
		E:         chip.Pins[sprE],
		Backlight: NewBacklight(chip.Pins[sprBacklight]),
	})
	if err != nil {
		return nil, err
	}
	if err = dev.Begin(cols, rows, font); err != nil {
		return nil, err
	}
	return dev, wrap(dev.Backlight(0xff))
}
