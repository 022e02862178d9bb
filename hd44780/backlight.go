// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// GPIOMonoBacklight switches a backlight with a single GPIO pin.
type GPIOMonoBacklight struct {
	pin       gpio.PinOut
	activeLow bool
}

// NewBacklight returns a backlight switched by pin, which is driven high to
// turn the backlight on.
func NewBacklight(pin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{pin: pin}
}

// NewBacklightActiveLow returns a backlight switched by pin through an
// inverting transistor.
func NewBacklightActiveLow(pin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{pin: pin, activeLow: true}
}

// Backlight turns the backlight off for an intensity of 0, on otherwise.
func (bl *GPIOMonoBacklight) Backlight(intensity display.Intensity) error {
	on := intensity > 0
	return bl.pin.Out(gpio.Level(on != bl.activeLow))
}

var _ display.DisplayBacklight = &GPIOMonoBacklight{}
