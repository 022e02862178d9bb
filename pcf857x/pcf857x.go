// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcf857x drives the TI/NXP PCF8574 (8 pins) and PCF8575 (16 pins)
// I²C I/O expanders, the chip found on most HD44780 LCD backpacks.
//
// The chip has no registers. Writing one (or two) bytes sets every pin at
// once, and reading returns the level of every pin. A pin written high is a
// weak pull-up that can be read as an input; a pin written low sinks to
// ground.
//
// The driver keeps a shadow of the last written value so that a single pin
// or a group can change without disturbing the others, and skips writes that
// would not change anything. An LCD strobe costs three I²C writes this way.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
package pcf857x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/pin"
)

// Variant is the chip model.
type Variant string

const (
	PCF8574 Variant = "PCF8574"
	PCF8575 Variant = "PCF8575"

	// DefaultAddress is the address with A0..A2 grounded on a PCF8574. The
	// PCF8574A variant starts at 0x38 and many backpacks ship at 0x27.
	DefaultAddress uint16 = 0x20
)

// ErrNotImplemented is returned for PWM and edge detection.
var ErrNotImplemented = errors.New("pcf857x: not implemented")

// Dev is a PCF857x expander.
type Dev struct {
	// Pins are the expander's pins, numbered P0 up.
	Pins []gpio.PinIO

	mu      sync.Mutex
	d       *i2c.Dev
	variant Variant
	width   int
	shadow  gpio.GPIOValue
	written bool
}

// New returns an expander at address on bus. No I/O is performed. Every pin
// is registered with gpioreg as "<variant>_<address>_GPIO<n>".
func New(bus i2c.Bus, address uint16, variant Variant) (*Dev, error) {
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: address}, variant: variant, width: 8}
	switch variant {
	case PCF8574:
	case PCF8575:
		dev.width = 16
	default:
		return nil, fmt.Errorf("pcf857x: unknown variant %q", variant)
	}
	// Power-on state of the chip: every pin high.
	dev.shadow = gpio.GPIOValue(1)<<dev.width - 1
	dev.Pins = make([]gpio.PinIO, dev.width)
	for n := range dev.width {
		p := &Pin{dev: dev, number: n, name: fmt.Sprintf("%s_GPIO%d", dev, n)}
		dev.Pins[n] = p
		if err := gpioreg.Register(p); err != nil {
			glog.V(2).Infof("pcf857x: %v", err)
		}
	}
	return dev, nil
}

// Group returns the given pins as a gpio.Group. Bit i of a group value maps
// to the i-th pin number passed here.
func (dev *Dev) Group(numbers ...int) (gpio.Group, error) {
	for _, n := range numbers {
		if n < 0 || n >= dev.width {
			return nil, fmt.Errorf("pcf857x: pin %d out of range", n)
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

// write changes the pins selected by mask to value. Nothing is sent when
// the result equals the last value written.
func (dev *Dev) write(value, mask gpio.GPIOValue) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	next := dev.shadow&^mask | value&mask
	if dev.written && next == dev.shadow {
		return nil
	}
	w := make([]byte, dev.width/8)
	for i := range w {
		w[i] = byte(next >> (8 * i))
	}
	if err := dev.d.Tx(w, nil); err != nil {
		return fmt.Errorf("pcf857x: %w", err)
	}
	dev.shadow = next
	dev.written = true
	return nil
}

// read releases the pins in mask by writing them high, then samples every
// pin.
func (dev *Dev) read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	if err := dev.write(mask, mask); err != nil {
		return 0, err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	r := make([]byte, dev.width/8)
	if err := dev.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("pcf857x: %w", err)
	}
	var v gpio.GPIOValue
	for i, b := range r {
		v |= gpio.GPIOValue(b) << (8 * i)
	}
	return v & mask, nil
}

// Group is a set of expander pins written in one I²C transaction.
type Group struct {
	dev     *Dev
	numbers []int
}

// toDev maps a group value to device pin positions.
func (gr *Group) toDev(v gpio.GPIOValue) gpio.GPIOValue {
	var out gpio.GPIOValue
	for i, n := range gr.numbers {
		if v&(1<<i) != 0 {
			out |= 1 << n
		}
	}
	return out
}

func (gr *Group) fullMask(mask gpio.GPIOValue) gpio.GPIOValue {
	if mask == 0 {
		return gpio.GPIOValue(1)<<len(gr.numbers) - 1
	}
	return mask
}

// Pins returns the pins of the group, in group order.
func (gr *Group) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(gr.numbers))
	for i, n := range gr.numbers {
		pins[i] = gr.dev.Pins[n]
	}
	return pins
}

// ByOffset returns the pin at position offset of the group.
func (gr *Group) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(gr.numbers) {
		return nil
	}
	return gr.dev.Pins[gr.numbers[offset]]
}

// ByName returns the group's pin with the given name.
func (gr *Group) ByName(name string) pin.Pin {
	for _, n := range gr.numbers {
		if gr.dev.Pins[n].Name() == name {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// ByNumber returns the group's pin with the given expander pin number.
func (gr *Group) ByNumber(number int) pin.Pin {
	for _, n := range gr.numbers {
		if n == number {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// Out sets the pins selected by mask. A zero mask selects every pin.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	mask = gr.fullMask(mask)
	return gr.dev.write(gr.toDev(value&mask), gr.toDev(mask))
}

// Read returns the levels of the pins selected by mask.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = gr.fullMask(mask)
	v, err := gr.dev.read(gr.toDev(mask))
	if err != nil {
		return 0, err
	}
	var out gpio.GPIOValue
	for i, n := range gr.numbers {
		if v&(1<<n) != 0 {
			out |= 1 << i
		}
	}
	return out, nil
}

// WaitForEdge is not supported. The chip's interrupt line does not tell
// which pin changed.
func (gr *Group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt does nothing.
func (gr *Group) Halt() error {
	return nil
}

func (gr *Group) String() string {
	return fmt.Sprintf("%s%v", gr.dev, gr.numbers)
}

var _ gpio.Group = &Group{}
