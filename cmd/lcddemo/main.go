// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcddemo writes text and custom glyphs to an HD44780 character display.
//
// The display is driven from GPIO pins, a PCF8574 or MCP23008 I²C backpack,
// a 74HC595 SPI backpack, or an emulated controller drawn on the terminal:
//
//	lcddemo -data GPIO23,GPIO17,GPIO18,GPIO22 -rs GPIO25 -e GPIO24 -text "Hello|world"
//	lcddemo -backpack pcf -addr 0x27 -cols 20 -rows 4 -glyphs
//	lcddemo -backpack adafruit -addr 0x20 -cursor
//	lcddemo -sim -png lcd.png -text "Hello|world" -scroll 4
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"github.com/GermanBionicSystems/charlcd/lcdsim"
	"github.com/GermanBionicSystems/charlcd/msgboard"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// glyphs are shown by -glyphs, in CGRAM slots 0 to 7.
var glyphs = [8][8]byte{
	{0x00, 0x0a, 0x1f, 0x1f, 0x0e, 0x04, 0x00, 0x00}, // heart
	{0x04, 0x0e, 0x0e, 0x0e, 0x1f, 0x00, 0x04, 0x00}, // bell
	{0x00, 0x0e, 0x15, 0x17, 0x11, 0x0e, 0x00, 0x00}, // clock
	{0x04, 0x0a, 0x0a, 0x0e, 0x0e, 0x1f, 0x1f, 0x0e}, // thermometer
	{0x0e, 0x1b, 0x11, 0x11, 0x11, 0x11, 0x1f, 0x00}, // battery empty
	{0x0e, 0x1b, 0x11, 0x11, 0x1f, 0x1f, 0x1f, 0x00}, // battery half
	{0x0e, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x00}, // battery full
	{0x00, 0x01, 0x03, 0x16, 0x1c, 0x08, 0x00, 0x00}, // check
}

type options struct {
	backpack  string
	bus       string
	addr      uint
	rs, e, rw string
	data      string
	bl        string
	cols      int
	rows      int
	font5x10  bool
	text      string
	glyphs    bool
	cursor    bool
	scroll    int
	delay     time.Duration
	sim       bool
	png       string
	scale     int
}

func open(o *options) (*hd44780.Dev, *lcdsim.Controller, error) {
	font := hd44780.Font5x8
	if o.font5x10 {
		font = hd44780.Font5x10
	}
	if o.sim {
		sim, err := lcdsim.New(&lcdsim.Opts{Cols: o.cols, Rows: o.rows, DataLines: 4})
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.New(&hd44780.Opts{
			Data:      sim.DataPins(),
			RS:        sim.RS(),
			E:         sim.E(),
			RW:        sim.RW(),
			Backlight: hd44780.NewBacklight(sim.Backlight()),
			Sleep:     sim.Sleep,
		})
		if err != nil {
			return nil, nil, err
		}
		if err = dev.Begin(o.cols, o.rows, font); err != nil {
			return nil, nil, err
		}
		return dev, sim, dev.Backlight(0xff)
	}

	state, err := host.Init()
	if err != nil {
		return nil, nil, err
	}
	logrus.Debugf("periph drivers loaded: %d", len(state.Loaded))

	switch o.backpack {
	case "pcf":
		b, err := i2creg.Open(o.bus)
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.NewPCF857xBackpack(b, uint16(o.addr), o.cols, o.rows, font)
		return dev, nil, err
	case "adafruit":
		b, err := i2creg.Open(o.bus)
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.NewAdafruitI2CBackpack(b, uint16(o.addr), o.cols, o.rows, font)
		return dev, nil, err
	case "spi":
		p, err := spireg.Open(o.bus)
		if err != nil {
			return nil, nil, err
		}
		c, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.NewSPIBackpack(c, o.cols, o.rows, font)
		return dev, nil, err
	case "":
	default:
		return nil, nil, fmt.Errorf("unknown backpack %q", o.backpack)
	}

	opts := &hd44780.Opts{}
	if opts.RS, err = pinByName("rs", o.rs); err != nil {
		return nil, nil, err
	}
	if opts.E, err = pinByName("e", o.e); err != nil {
		return nil, nil, err
	}
	if o.rw != "" {
		if opts.RW, err = pinByName("rw", o.rw); err != nil {
			return nil, nil, err
		}
	}
	if o.bl != "" {
		p, err := pinByName("bl", o.bl)
		if err != nil {
			return nil, nil, err
		}
		opts.Backlight = hd44780.NewBacklight(p)
	}
	for _, name := range strings.Split(o.data, ",") {
		p, err := pinByName("data", strings.TrimSpace(name))
		if err != nil {
			return nil, nil, err
		}
		opts.Data = append(opts.Data, p)
	}
	dev, err := hd44780.New(opts)
	if err != nil {
		return nil, nil, err
	}
	if err = dev.Begin(o.cols, o.rows, font); err != nil {
		return nil, nil, err
	}
	if opts.Backlight != nil {
		err = dev.Backlight(0xff)
	}
	return dev, nil, err
}

func pinByName(flagName, name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, fmt.Errorf("-%s is required", flagName)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("-%s: no pin %q", flagName, name)
	}
	return p, nil
}

// show draws the emulated glass, when there is one.
func show(term *lcdsim.Terminal) {
	if term == nil {
		return
	}
	if err := term.Refresh(); err != nil {
		logrus.WithError(err).Warn("terminal refresh failed")
	}
}

func run(o *options) error {
	dev, sim, err := open(o)
	if err != nil {
		return err
	}
	logrus.WithField("display", dev.String()).Info("display ready")
	var term *lcdsim.Terminal
	if sim != nil {
		term = lcdsim.NewTerminal(sim, nil)
		defer term.Halt()
	}

	board := msgboard.NewHandler(dev, nil)
	if err = board.Show(msgboard.Message{Lines: strings.Split(o.text, "|")}); err != nil {
		return err
	}
	if o.glyphs {
		for i, g := range glyphs {
			if err = dev.DefineGlyph(byte(i), g); err != nil {
				return err
			}
		}
		if err = dev.SetCursor(0, dev.Rows()-1); err != nil {
			return err
		}
		if err = dev.Print("\x00\x01\x02\x03\x04\x05\x06\x07"); err != nil {
			return err
		}
		logrus.Debug("glyphs defined")
	}
	if o.cursor {
		if err = dev.CursorOn(); err != nil {
			return err
		}
		if err = dev.BlinkOn(); err != nil {
			return err
		}
	}
	show(term)

	for i := range o.scroll {
		time.Sleep(o.delay)
		if err = dev.ScrollLeft(); err != nil {
			return err
		}
		logrus.WithField("step", i+1).Debug("scrolled")
		show(term)
	}

	if sim != nil {
		if v := sim.Violations(); len(v) != 0 {
			logrus.WithField("count", len(v)).Warn("timing violations")
			for _, s := range v {
				logrus.Debug(s)
			}
		}
		if o.png != "" {
			f, err := os.Create(o.png)
			if err != nil {
				return err
			}
			if err = sim.WritePNG(f, o.scale); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return err
			}
			logrus.WithField("path", o.png).Info("snapshot written")
		}
	}
	return nil
}

func mainImpl() error {
	o := &options{}
	flag.StringVar(&o.backpack, "backpack", "", "backpack: \"pcf\" (PCF8574 over I²C), \"adafruit\" (MCP23008 over I²C), \"spi\" (74HC595), or empty for GPIO pins")
	flag.StringVar(&o.bus, "bus", "", "I²C or SPI bus name for -backpack")
	flag.UintVar(&o.addr, "addr", 0x27, "I²C address of the backpack, 0x20 for adafruit")
	flag.StringVar(&o.rs, "rs", "", "register select pin")
	flag.StringVar(&o.e, "e", "", "enable pin")
	flag.StringVar(&o.rw, "rw", "", "read/write pin, when not tied to ground")
	flag.StringVar(&o.data, "data", "", "comma separated data pins, 4 (D4..D7) or 8 (D0..D7), least significant first")
	flag.StringVar(&o.bl, "bl", "", "backlight pin")
	flag.IntVar(&o.cols, "cols", 16, "columns")
	flag.IntVar(&o.rows, "rows", 2, "rows")
	flag.BoolVar(&o.font5x10, "font5x10", false, "use the 5x10 font (single line displays)")
	flag.StringVar(&o.text, "text", "Hello|world", "text to show, rows separated by |")
	flag.BoolVar(&o.glyphs, "glyphs", false, "define custom glyphs and show them on the last row")
	flag.BoolVar(&o.cursor, "cursor", false, "show a blinking cursor")
	flag.IntVar(&o.scroll, "scroll", 0, "scroll the display left this many times")
	flag.DurationVar(&o.delay, "delay", 300*time.Millisecond, "delay between scroll steps")
	flag.BoolVar(&o.sim, "sim", false, "draw an emulated display on the terminal")
	flag.StringVar(&o.png, "png", "", "with -sim, write a snapshot to this PNG file")
	flag.IntVar(&o.scale, "scale", 4, "pixels per dot of the PNG snapshot")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return run(o)
}

func main() {
	if err := mainImpl(); err != nil {
		logrus.WithError(err).Fatal("lcddemo")
	}
}
