// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nxp74hc595

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one output of the shift register.
type Pin struct {
	dev    *Dev
	name   string
	number int
}

// Out drives the output.
func (p *Pin) Out(l gpio.Level) error {
	mask := byte(1) << p.number
	var v byte
	if l {
		v = mask
	}
	return p.dev.write(v, mask)
}

// PWM returns ErrNotImplemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

// Deprecated: returns "Out"
func (p *Pin) Function() string {
	return "Out"
}

// Halt does nothing; the output keeps its level.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the chip name followed by the output number, for example
// "74HC595_GPO3".
func (p *Pin) Name() string {
	return p.name
}

// Number returns the output number, 0 for QA up to 7 for QH.
func (p *Pin) Number() int {
	return p.number
}

// String returns the pin name.
func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
