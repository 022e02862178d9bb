// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	lineRS = iota
	lineRW
	lineE
	lineBacklight
	lineD0
)

// Pin is one input line of the emulated controller.
type Pin struct {
	c     *Controller
	line  int
	name  string
	level gpio.Level
}

// Out drives the line.
func (p *Pin) Out(l gpio.Level) error {
	p.level = l
	p.c.setLine(p.line, l)
	return nil
}

// PWM is not supported.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("lcdsim: PWM not supported")
}

// Function returns the last level driven on the line.
func (p *Pin) Function() string {
	return "Out/" + p.level.String()
}

func (p *Pin) Halt() error {
	return nil
}

func (p *Pin) Name() string {
	return p.name
}

// Number returns -1; emulated lines have no GPIO number.
func (p *Pin) Number() int {
	return -1
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
