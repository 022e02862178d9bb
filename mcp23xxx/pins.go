// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one expander pin, used as an output.
type Pin struct {
	dev    *Dev
	number int
	name   string
}

func (p *Pin) mask() byte {
	return 1 << p.number
}

// Out drives the pin, switching it to output first if needed.
func (p *Pin) Out(l gpio.Level) error {
	var v byte
	if l {
		v = p.mask()
	}
	return p.dev.write(v, p.mask())
}

// PWM returns ErrNotImplemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

// Function reports the direction and last written level of the pin.
func (p *Pin) Function() string {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	switch {
	case p.dev.iodir&p.mask() != 0:
		return "In"
	case p.dev.olat&p.mask() != 0:
		return "Out/High"
	default:
		return "Out/Low"
	}
}

// Halt does nothing.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name the pin is registered under.
func (p *Pin) Name() string {
	return p.name
}

// Number returns the GP number of the pin.
func (p *Pin) Number() int {
	return p.number
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
