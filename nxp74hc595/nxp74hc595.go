// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package nxp74hc595 drives a 74HC595 serial-in, parallel-out shift register
// from an SPI port, exposing its 8 outputs as GPIO pins. The SPI side of the
// Adafruit I²C/SPI LCD backpack is built on this chip.
//
// The SPI chip select line must be wired to the storage register clock
// (RCLK) so the outputs update when a transfer ends.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
package nxp74hc595

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
)

const (
	devName = "74HC595"
	numPins = 8
)

// ErrNotImplemented is returned for operations an output-only chip lacks.
var ErrNotImplemented = errors.New("nxp74hc595: not implemented")

// Dev is a 74HC595 shift register.
type Dev struct {
	// Pins are the outputs QA..QH, numbered 0 to 7.
	Pins []gpio.PinOut

	mu      sync.Mutex
	conn    spi.Conn
	shadow  byte
	written bool
}

// New returns a shift register on conn. No I/O is performed; the first pin
// write always shifts a full byte out.
func New(conn spi.Conn) (*Dev, error) {
	if conn == nil {
		return nil, errors.New("nxp74hc595: nil spi.Conn")
	}
	dev := &Dev{conn: conn, Pins: make([]gpio.PinOut, numPins)}
	for n := range numPins {
		dev.Pins[n] = &Pin{dev: dev, number: n, name: fmt.Sprintf("%s_GPO%d", devName, n)}
	}
	return dev, nil
}

// write changes the outputs selected by mask to value.
func (dev *Dev) write(value, mask byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.conn == nil {
		return errors.New("nxp74hc595: halted")
	}
	next := dev.shadow&^mask | value&mask
	if dev.written && next == dev.shadow {
		return nil
	}
	if err := dev.conn.Tx([]byte{next}, nil); err != nil {
		return fmt.Errorf("nxp74hc595: %w", err)
	}
	dev.shadow = next
	dev.written = true
	return nil
}

// Group returns the given outputs as a gpio.Group. Bit i of a group value
// maps to the i-th output number passed here.
func (dev *Dev) Group(numbers ...int) (gpio.Group, error) {
	for _, n := range numbers {
		if n < 0 || n >= numPins {
			return nil, fmt.Errorf("nxp74hc595: output %d out of range", n)
		}
	}
	return &Group{dev: dev, numbers: append([]int(nil), numbers...)}, nil
}

// Halt releases the SPI connection. The device cannot be used afterwards.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.conn = nil
	return nil
}

func (dev *Dev) String() string {
	return devName
}

// Group is a set of outputs shifted out in one SPI transfer.
type Group struct {
	dev     *Dev
	numbers []int
}

// Pins returns the group's outputs in group order.
func (gr *Group) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(gr.numbers))
	for i, n := range gr.numbers {
		pins[i] = gr.dev.Pins[n]
	}
	return pins
}

// ByOffset returns the output at position offset of the group.
func (gr *Group) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(gr.numbers) {
		return nil
	}
	return gr.dev.Pins[gr.numbers[offset]]
}

// ByName returns the group's output with the given name.
func (gr *Group) ByName(name string) pin.Pin {
	for _, n := range gr.numbers {
		if gr.dev.Pins[n].Name() == name {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// ByNumber returns the group's output with the given chip output number.
func (gr *Group) ByNumber(number int) pin.Pin {
	for _, n := range gr.numbers {
		if n == number {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// Out sets the outputs selected by mask. A zero mask selects every output.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = gpio.GPIOValue(1)<<len(gr.numbers) - 1
	}
	var wrValue, wrMask byte
	for i, n := range gr.numbers {
		bit := gpio.GPIOValue(1) << i
		if mask&bit == 0 {
			continue
		}
		wrMask |= 1 << n
		if value&bit != 0 {
			wrValue |= 1 << n
		}
	}
	return gr.dev.write(wrValue, wrMask)
}

// Read is not available on an output-only chip.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	return 0, ErrNotImplemented
}

// WaitForEdge is not available on an output-only chip.
func (gr *Group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt does nothing; the outputs keep their level.
func (gr *Group) Halt() error {
	return nil
}

func (gr *Group) String() string {
	return fmt.Sprintf("%s%v", devName, gr.numbers)
}

var _ gpio.Group = &Group{}
