// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

const (
	delayPowerOn = 50 * time.Millisecond
	// The datasheet asks for 4.1ms after the first attention byte and 100µs
	// after the second.
	delayAttention = 5 * time.Millisecond
	delayLast      = 150 * time.Microsecond
)

// initialize runs the "initializing by instruction" sequence of the
// datasheet (figures 23 and 24). It works whatever interface width the
// controller was left in, including the middle of a 4-bit transfer.
func (dev *Dev) initialize() error {
	glog.V(1).Infof("%s: initializing %d-bit interface", packageName, dev.bus.width())
	dev.sleep(delayPowerOn)
	if err := dev.rs.Out(gpio.Low); err != nil {
		return err
	}
	if err := dev.e.Out(gpio.Low); err != nil {
		return err
	}
	if dev.rw != nil {
		if err := dev.rw.Out(gpio.Low); err != nil {
			return err
		}
	}

	attention := dev.write4Bits
	value := byte(0x03)
	if dev.function&function8Bit != 0 {
		attention = dev.write8Bits
		value = 0x30
	}
	for _, wait := range []time.Duration{delayAttention, delayAttention, delayLast} {
		if err := attention(value); err != nil {
			return err
		}
		dev.sleep(wait)
	}
	if dev.function&function8Bit == 0 {
		// Only the upper half of the function set is seen, switching the
		// interface to 4 bits.
		if err := dev.write4Bits(0x02); err != nil {
			return err
		}
	}
	return dev.send(cmdFunctionSet|byte(dev.function), false)
}
