// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// Group is a set of expander pins written with one latch update.
type Group struct {
	dev     *Dev
	numbers []int
}

// toDev converts a value relative to the group pins to the absolute value
// for the port.
func (gr *Group) toDev(v gpio.GPIOValue) byte {
	var out byte
	for i, n := range gr.numbers {
		if v&(1<<i) != 0 {
			out |= 1 << n
		}
	}
	return out
}

func (gr *Group) fullMask(mask gpio.GPIOValue) gpio.GPIOValue {
	all := gpio.GPIOValue(1)<<len(gr.numbers) - 1
	if mask == 0 {
		return all
	}
	return mask & all
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

// ByName returns the group's pin with the given name. If it can't be found,
// nil is returned.
func (gr *Group) ByName(name string) pin.Pin {
	for _, n := range gr.numbers {
		if gr.dev.Pins[n].Name() == name {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// ByNumber returns the group's pin with the given GP number.
func (gr *Group) ByNumber(number int) pin.Pin {
	for _, n := range gr.numbers {
		if n == number {
			return gr.dev.Pins[n]
		}
	}
	return nil
}

// Out writes value to the pins selected by mask. If mask is 0, every pin of
// the group is written.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	mask = gr.fullMask(mask)
	return gr.dev.write(gr.toDev(value&mask), gr.toDev(mask))
}

// Read returns the levels of the pins selected by mask. Pins are not
// switched to input; an output reads back its own level.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = gr.fullMask(mask)
	v, err := gr.dev.read()
	if err != nil {
		return 0, err
	}
	var out gpio.GPIOValue
	for i, n := range gr.numbers {
		if v&(1<<n) != 0 {
			out |= 1 << i
		}
	}
	return out & mask, nil
}

// WaitForEdge is not supported. It would need the INT line wired to a host
// pin.
func (gr *Group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

// Halt does nothing.
func (gr *Group) Halt() error {
	return nil
}

// String returns the device name and the pins of the group.
func (gr *Group) String() string {
	return fmt.Sprintf("%s%v", gr.dev, gr.numbers)
}

var _ gpio.Group = &Group{}
