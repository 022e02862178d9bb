// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package charlcd is a container for HD44780 character display drivers.
//
// hd44780 drives the controller over 4 or 8 parallel GPIO lines, directly
// or behind the pcf857x (I²C) and nxp74hc595 (SPI) expanders found on
// display backpacks. lcdsim emulates the controller at the pin level and
// renders it, and msgboard feeds a display from a channel.
package charlcd
