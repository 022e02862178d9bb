// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf857x

import (
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one quasi-bidirectional expander pin.
type Pin struct {
	dev    *Dev
	number int
	name   string
}

func (p *Pin) mask() gpio.GPIOValue {
	return gpio.GPIOValue(1) << p.number
}

// Out drives the pin.
func (p *Pin) Out(l gpio.Level) error {
	var v gpio.GPIOValue
	if l {
		v = p.mask()
	}
	return p.dev.write(v, p.mask())
}

// In releases the pin high so it can be read. Pull and edge are ignored, the
// chip only has a fixed weak pull-up.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	return p.dev.write(p.mask(), p.mask())
}

// Read samples the pin. A bus error reads as Low.
func (p *Pin) Read() gpio.Level {
	v, err := p.dev.read(p.mask())
	if err != nil {
		glog.Warningf("%s: %v", p.name, err)
		return gpio.Low
	}
	return v != 0
}

// WaitForEdge always returns false.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// PWM returns ErrNotImplemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

// Pull returns gpio.PullUp, the weak pull-up of a released pin.
func (p *Pin) Pull() gpio.Pull {
	return gpio.PullUp
}

// DefaultPull returns gpio.PullUp.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Function reports the last written state of the pin.
func (p *Pin) Function() string {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	if p.dev.shadow&p.mask() != 0 {
		return "In/High"
	}
	return "Out/Low"
}

func (p *Pin) Halt() error {
	return nil
}

func (p *Pin) Name() string {
	return p.name
}

func (p *Pin) Number() int {
	return p.number
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinIO = &Pin{}
