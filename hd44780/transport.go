// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

const (
	// Enable pulse width and cycle, well above the 450ns/1000ns minimum.
	delayPulse = 1 * time.Microsecond
	// Execution time of every instruction except clear and home.
	delayExecute = 100 * time.Microsecond
)

// dataBus asserts a value on the first n data lines.
type dataBus interface {
	width() int
	// out asserts bit i of value on line i, for i < n.
	out(value byte, n int) error
	setup() error
	halt() error
	String() string
}

// pinBus drives the data lines one pin at a time.
type pinBus struct {
	pins []gpio.PinOut
}

func (b *pinBus) width() int {
	return len(b.pins)
}

func (b *pinBus) out(value byte, n int) error {
	for i := range n {
		if err := b.pins[i].Out(gpio.Level(value>>i&1 != 0)); err != nil {
			return err
		}
	}
	return nil
}

func (b *pinBus) setup() error {
	for i, p := range b.pins {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("data line %d: %w", i, err)
		}
		glog.V(2).Infof("%s: data line %d (%s) set up as output", packageName, i, p)
	}
	return nil
}

func (b *pinBus) halt() error {
	var err error
	for _, p := range b.pins {
		if e := p.Halt(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (b *pinBus) String() string {
	s := "["
	for i, p := range b.pins {
		if i > 0 {
			s += " "
		}
		s += p.String()
	}
	return s + "]"
}

// groupBus drives the data lines with a single gpio.Group write, one bus
// transaction per nibble on I/O expanders.
type groupBus struct {
	gr gpio.Group
	n  int
}

func (b *groupBus) width() int {
	return b.n
}

func (b *groupBus) out(value byte, n int) error {
	mask := gpio.GPIOValue(1)<<n - 1
	return b.gr.Out(gpio.GPIOValue(value)&mask, mask)
}

func (b *groupBus) setup() error {
	mask := gpio.GPIOValue(1)<<b.n - 1
	if err := b.gr.Out(0, mask); err != nil {
		return err
	}
	glog.V(2).Infof("%s: data group %s set up as output", packageName, b.gr)
	return nil
}

func (b *groupBus) halt() error {
	return b.gr.Halt()
}

func (b *groupBus) String() string {
	return b.gr.String()
}

// send writes v to the data register when asData is set, to the instruction
// register otherwise. In 4-bit mode the high nibble goes first.
func (dev *Dev) send(v byte, asData bool) error {
	if err := dev.rs.Out(gpio.Level(asData)); err != nil {
		return err
	}
	if dev.rw != nil {
		if err := dev.rw.Out(gpio.Low); err != nil {
			return err
		}
	}
	if glog.V(3) {
		glog.Infof("%s: send 0x%02x data=%t", packageName, v, asData)
	}
	if dev.function&function8Bit != 0 {
		return dev.write8Bits(v)
	}
	if err := dev.write4Bits(v >> 4); err != nil {
		return err
	}
	return dev.write4Bits(v & 0x0f)
}

func (dev *Dev) write4Bits(v byte) error {
	if err := dev.bus.out(v, 4); err != nil {
		return err
	}
	return dev.pulseEnable()
}

func (dev *Dev) write8Bits(v byte) error {
	if err := dev.bus.out(v, 8); err != nil {
		return err
	}
	return dev.pulseEnable()
}

// pulseEnable latches the asserted data lines on the falling edge of E, then
// waits for the instruction to execute.
func (dev *Dev) pulseEnable() error {
	if err := dev.e.Out(gpio.Low); err != nil {
		return err
	}
	dev.sleep(delayPulse)
	if err := dev.e.Out(gpio.High); err != nil {
		return err
	}
	dev.sleep(delayPulse)
	if err := dev.e.Out(gpio.Low); err != nil {
		return err
	}
	dev.sleep(delayExecute)
	return nil
}
