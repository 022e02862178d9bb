// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/charlcd/lcdsim"
	"github.com/GermanBionicSystems/charlcd/pcf857x"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// getSim returns a started display wired to an emulated controller.
func getSim(t *testing.T, cols, rows, lines int) (*Dev, *lcdsim.Controller) {
	t.Helper()
	sim, err := lcdsim.New(&lcdsim.Opts{Cols: cols, Rows: rows, DataLines: lines})
	if err != nil {
		t.Fatal(err)
	}
	dev, err := New(&Opts{
		Data:      sim.DataPins(),
		RS:        sim.RS(),
		E:         sim.E(),
		RW:        sim.RW(),
		Backlight: NewBacklight(sim.Backlight()),
		Sleep:     sim.Sleep,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Begin(cols, rows, Font5x8); err != nil {
		t.Fatal(err)
	}
	return dev, sim
}

func checkTiming(t *testing.T, sim *lcdsim.Controller) {
	t.Helper()
	for _, v := range sim.Violations() {
		t.Errorf("timing violation: %s", v)
	}
}

func lastTransfer(t *testing.T, sim *lcdsim.Controller) lcdsim.Transfer {
	t.Helper()
	tr := sim.Transfers()
	if len(tr) == 0 {
		t.Fatal("no transfer")
	}
	return tr[len(tr)-1]
}

func cmds(values ...byte) []lcdsim.Transfer {
	out := make([]lcdsim.Transfer, len(values))
	for i, v := range values {
		out[i] = lcdsim.Transfer{Value: v}
	}
	return out
}

// recPin logs every level driven on it.
type recPin struct {
	gpiotest.Pin
	log *[]string
}

func (p *recPin) Out(l gpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	*p.log = append(*p.log, fmt.Sprintf("%s=%d", p.N, v))
	return p.Pin.Out(l)
}

func recPins(log *[]string, names ...string) []gpio.PinOut {
	out := make([]gpio.PinOut, len(names))
	for i, n := range names {
		out[i] = &recPin{Pin: gpiotest.Pin{N: n, Num: i}, log: log}
	}
	return out
}

// failPin rejects every write.
type failPin struct {
	gpiotest.Pin
}

func (p *failPin) Out(l gpio.Level) error {
	return errors.New("line stuck")
}

// countPin accepts ok writes, then rejects every write.
type countPin struct {
	gpiotest.Pin
	ok int
}

func (p *countPin) Out(l gpio.Level) error {
	if p.ok == 0 {
		return errors.New("line stuck")
	}
	p.ok--
	return p.Pin.Out(l)
}

func TestNew(t *testing.T) {
	var log []string
	four := recPins(&log, "D4", "D5", "D6", "D7")
	ctl := recPins(&log, "RS", "E")
	pcf, err := pcf857x.New(&i2ctest.Record{}, pcf857x.DefaultAddress, pcf857x.PCF8574)
	if err != nil {
		t.Fatal(err)
	}
	gr, err := pcf.Group(4, 5, 6, 7)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name string
		opts *Opts
		ok   bool
	}{
		{"nil", nil, false},
		{"4-bit", &Opts{Data: four, RS: ctl[0], E: ctl[1]}, true},
		{"8-bit", &Opts{Data: append(four, four...), RS: ctl[0], E: ctl[1]}, true},
		{"3 lines", &Opts{Data: four[:3], RS: ctl[0], E: ctl[1]}, false},
		{"no lines", &Opts{RS: ctl[0], E: ctl[1]}, false},
		{"nil line", &Opts{Data: []gpio.PinOut{four[0], nil, four[2], four[3]}, RS: ctl[0], E: ctl[1]}, false},
		{"no RS", &Opts{Data: four, E: ctl[1]}, false},
		{"no E", &Opts{Data: four, RS: ctl[0]}, false},
		{"group", &Opts{Group: gr, RS: ctl[0], E: ctl[1]}, true},
		{"both", &Opts{Data: four, Group: gr, RS: ctl[0], E: ctl[1]}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			dev, err := New(test.opts)
			if test.ok {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			if dev != nil || !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New()=%v, %v; want ErrInvalidConfig", dev, err)
			}
		})
	}
	if len(log) != 0 {
		t.Errorf("New performed I/O: %v", log)
	}
}

func TestBeginGeometry(t *testing.T) {
	sim, _ := lcdsim.New(&lcdsim.Opts{Cols: 16, Rows: 2, DataLines: 4})
	dev, err := New(&Opts{Data: sim.DataPins(), RS: sim.RS(), E: sim.E(), Sleep: sim.Sleep})
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range [][2]int{{16, 0}, {16, 5}, {0, 2}, {40, 4}, {-1, 1}} {
		if err := dev.Begin(g[0], g[1], Font5x8); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Begin(%d, %d)=%v", g[0], g[1], err)
		}
	}
	if n := sim.Strobes(); n != 0 {
		t.Errorf("rejected Begin strobed E %d times", n)
	}
}

func TestBeginRegisters(t *testing.T) {
	dev, sim := getSim(t, 16, 4, 4)
	if dev.function != function2Line {
		t.Errorf("function=0x%02x", dev.function)
	}
	if dev.control != displayOn {
		t.Errorf("control=0x%02x", dev.control)
	}
	if dev.entry != entryLeft {
		t.Errorf("entry=0x%02x", dev.entry)
	}
	if got, want := dev.RowOffsets(), [4]byte{0x00, 0x40, 0x10, 0x50}; got != want {
		t.Errorf("RowOffsets()=%v, want %v", got, want)
	}
	if dev.Cols() != 16 || dev.Rows() != 4 {
		t.Errorf("geometry %dx%d", dev.Cols(), dev.Rows())
	}
	if !sim.DisplayOn() || sim.CursorOn() || sim.BlinkOn() || !sim.Increment() || sim.ShiftOnWrite() {
		t.Errorf("unexpected controller state %s", sim)
	}
}

func TestBegin4Bit(t *testing.T) {
	_, sim := getSim(t, 16, 2, 4)
	want := cmds(0x30, 0x30, 0x30, 0x20, 0x28, 0x0c, 0x04, 0x06)
	if diff := cmp.Diff(want, sim.Transfers()); diff != "" {
		t.Errorf("init sequence (-want +got):\n%s", diff)
	}
	if sim.EightBit() || !sim.TwoLine() || sim.Font5x10() {
		t.Error("function set not applied")
	}
	// 4 single nibbles, then 4 bytes of 2 nibbles.
	if n := sim.Strobes(); n != 12 {
		t.Errorf("Strobes()=%d, want 12", n)
	}
	checkTiming(t, sim)
}

func TestBegin8Bit(t *testing.T) {
	_, sim := getSim(t, 20, 1, 8)
	want := cmds(0x30, 0x30, 0x30, 0x30, 0x0c, 0x04, 0x06)
	if diff := cmp.Diff(want, sim.Transfers()); diff != "" {
		t.Errorf("init sequence (-want +got):\n%s", diff)
	}
	if !sim.EightBit() || sim.TwoLine() {
		t.Error("function set not applied")
	}
	if n := sim.Strobes(); n != 7 {
		t.Errorf("Strobes()=%d, want 7", n)
	}
	checkTiming(t, sim)
}

func TestBeginFont5x10(t *testing.T) {
	sim, _ := lcdsim.New(&lcdsim.Opts{Cols: 16, Rows: 1, DataLines: 4})
	dev, _ := New(&Opts{Data: sim.DataPins(), RS: sim.RS(), E: sim.E(), Sleep: sim.Sleep})
	if err := dev.Begin(16, 1, Font5x10); err != nil {
		t.Fatal(err)
	}
	if !sim.Font5x10() || sim.TwoLine() {
		t.Error("5x10 single line not selected")
	}
}

func TestBeginResync(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	// Leave the controller waiting for the second half of a byte.
	if err := dev.write4Bits(0x0); err != nil {
		t.Fatal(err)
	}
	dev.sleep(delayClear)
	if err := dev.Begin(16, 2, Font5x8); err != nil {
		t.Fatal(err)
	}
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Print("sync"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Text()[0]; got != "sync            " {
		t.Errorf("Text()[0]=%q", got)
	}
	if sim.EightBit() {
		t.Error("controller left in 8-bit mode")
	}
	checkTiming(t, sim)
}

func TestSendNibbleOrder(t *testing.T) {
	var log []string
	var sleeps []time.Duration
	pins := recPins(&log, "D4", "D5", "D6", "D7", "RS", "E")
	dev, err := New(&Opts{
		Data:  pins[:4],
		RS:    pins[4],
		E:     pins[5],
		Sleep: func(d time.Duration) { sleeps = append(sleeps, d) },
	})
	if err != nil {
		t.Fatal(err)
	}
	// Skip the reset handshake to look at one transfer alone.
	dev.begun = true
	if err = dev.SendData(0xa5); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"RS=1",
		"D4=0", "D5=1", "D6=0", "D7=1", "E=0", "E=1", "E=0",
		"D4=1", "D5=0", "D6=1", "D7=0", "E=0", "E=1", "E=0",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("pin writes (-want +got):\n%s", diff)
	}
	us := time.Microsecond
	if diff := cmp.Diff([]time.Duration{us, us, 100 * us, us, us, 100 * us}, sleeps); diff != "" {
		t.Errorf("sleeps (-want +got):\n%s", diff)
	}
}

func TestSend8Bit(t *testing.T) {
	var log []string
	pins := recPins(&log, "D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7", "RS", "E", "RW")
	dev, err := New(&Opts{Data: pins[:8], RS: pins[8], E: pins[9], RW: pins[10], Sleep: func(time.Duration) {}})
	if err != nil {
		t.Fatal(err)
	}
	dev.begun = true
	if err = dev.SendCommand(0x81); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"RS=0", "RW=0",
		"D0=1", "D1=0", "D2=0", "D3=0", "D4=0", "D5=0", "D6=0", "D7=1",
		"E=0", "E=1", "E=0",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("pin writes (-want +got):\n%s", diff)
	}
}

func TestPinError(t *testing.T) {
	var log []string
	data := recPins(&log, "D4", "D5", "D6", "D7")
	dev, err := New(&Opts{Data: data, RS: data[0], E: &failPin{gpiotest.Pin{N: "E"}}, Sleep: func(time.Duration) {}})
	if err != nil {
		t.Fatal(err)
	}
	err = dev.Begin(16, 2, Font5x8)
	if err == nil || !strings.HasPrefix(err.Error(), packageName+": ") {
		t.Errorf("Begin()=%v", err)
	}
	// A failed Begin leaves the controller in an unknown state.
	if err = dev.Print("x"); !errors.Is(err, ErrNotBegun) {
		t.Errorf("Print()=%v, want ErrNotBegun", err)
	}
}

func TestNotBegun(t *testing.T) {
	sim, err := lcdsim.New(&lcdsim.Opts{Cols: 20, Rows: 4, DataLines: 4})
	if err != nil {
		t.Fatal(err)
	}
	dev, err := New(&Opts{
		Data:      sim.DataPins(),
		RS:        sim.RS(),
		E:         sim.E(),
		Backlight: NewBacklight(sim.Backlight()),
		Sleep:     sim.Sleep,
	})
	if err != nil {
		t.Fatal(err)
	}
	for name, op := range map[string]func() error{
		"SetCursor":    func() error { return dev.SetCursor(5, 3) },
		"Print":        func() error { return dev.Print("x") },
		"Clear":        dev.Clear,
		"Home":         dev.Home,
		"DisplayOn":    dev.DisplayOn,
		"CursorOn":     dev.CursorOn,
		"AutoscrollOn": dev.AutoscrollOn,
		"ScrollLeft":   dev.ScrollLeft,
		"DefineGlyph":  func() error { return dev.DefineGlyph(0, [8]byte{}) },
		"SendCommand":  func() error { return dev.SendCommand(cmdClearDisplay) },
		"SendData":     func() error { return dev.SendData('x') },
		"Cursor":       func() error { return dev.Cursor(display.CursorBlink) },
		"Move":         func() error { return dev.Move(display.Forward) },
		"MoveTo":       func() error { return dev.MoveTo(1, 1) },
		"Write": func() error {
			n, err := dev.Write([]byte("x"))
			if n != 0 {
				t.Errorf("Write() wrote %d bytes", n)
			}
			return err
		},
	} {
		err := op()
		if !errors.Is(err, ErrNotBegun) || !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s()=%v, want ErrNotBegun", name, err)
		}
	}
	// The backlight is not behind the controller.
	if err = dev.Backlight(0xff); err != nil || !sim.BacklightOn() {
		t.Errorf("Backlight()=%v", err)
	}
	if err = dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if n := sim.Strobes(); n != 0 {
		t.Errorf("strobed E %d times before Begin", n)
	}

	if err = dev.Begin(20, 4, Font5x8); err != nil {
		t.Fatal(err)
	}
	if err = dev.SetCursor(5, 3); err != nil {
		t.Fatal(err)
	}
	if got := lastTransfer(t, sim); got != (lcdsim.Transfer{Value: 0xd9}) {
		t.Errorf("SetCursor(5, 3) sent %s", got)
	}
	checkTiming(t, sim)
}

func TestConcurrentBeginMoveTo(t *testing.T) {
	sim, err := lcdsim.New(&lcdsim.Opts{Cols: 20, Rows: 4, DataLines: 4})
	if err != nil {
		t.Fatal(err)
	}
	dev, err := New(&Opts{Data: sim.DataPins(), RS: sim.RS(), E: sim.E(), Sleep: sim.Sleep})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	var beginErr, moveErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		beginErr = dev.Begin(20, 4, Font5x8)
	}()
	go func() {
		defer wg.Done()
		moveErr = dev.MoveTo(2, 2)
		_ = dev.Cols()
		_ = dev.Rows()
		_ = dev.String()
	}()
	wg.Wait()
	if beginErr != nil {
		t.Fatal(beginErr)
	}
	// MoveTo either ran first and was refused, or ran on the set up display.
	if moveErr != nil && !errors.Is(moveErr, ErrNotBegun) {
		t.Errorf("MoveTo()=%v", moveErr)
	}
	if err = dev.MoveTo(2, 2); err != nil {
		t.Fatal(err)
	}
	if ac, _ := sim.Address(); ac != 0x41 {
		t.Errorf("Address()=0x%02x", ac)
	}
	checkTiming(t, sim)
}

func TestClearHome(t *testing.T) {
	sim, _ := lcdsim.New(&lcdsim.Opts{Cols: 16, Rows: 2, DataLines: 4})
	var sleeps []time.Duration
	dev, _ := New(&Opts{
		Data: sim.DataPins(),
		RS:   sim.RS(),
		E:    sim.E(),
		Sleep: func(d time.Duration) {
			sleeps = append(sleeps, d)
			sim.Sleep(d)
		},
	})
	if err := dev.Begin(16, 2, Font5x8); err != nil {
		t.Fatal(err)
	}
	_ = dev.Print("abc")
	_ = dev.ScrollLeft()
	for _, op := range []func() error{dev.Clear, dev.Home} {
		sleeps = nil
		if err := op(); err != nil {
			t.Fatal(err)
		}
		if got := sleeps[len(sleeps)-1]; got != 2*time.Millisecond {
			t.Errorf("last sleep %v, want 2ms", got)
		}
		// The next instruction may follow immediately.
		if err := dev.Print("x"); err != nil {
			t.Fatal(err)
		}
	}
	if got := sim.Text()[0]; got != "x               " {
		t.Errorf("Text()[0]=%q", got)
	}
	if sim.Shift() != 0 {
		t.Errorf("Shift()=%d", sim.Shift())
	}
	checkTiming(t, sim)
}

func TestPrint(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	sim.ResetLog()
	if err := dev.Print("Hi"); err != nil {
		t.Fatal(err)
	}
	want := []lcdsim.Transfer{{Data: true, Value: 0x48}, {Data: true, Value: 0x69}}
	if diff := cmp.Diff(want, sim.Transfers()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if err := dev.Print(""); err != nil {
		t.Error(err)
	}
	// NUL is a character, not a terminator.
	if err := dev.Print("a\x00b"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Text()[0]; got != "Hia\x00b           " {
		t.Errorf("Text()[0]=%q", got)
	}
	checkTiming(t, sim)
}

func TestSetCursor(t *testing.T) {
	dev, sim := getSim(t, 20, 4, 4)
	for _, test := range []struct {
		col, row int
		want     byte
	}{
		{0, 0, 0x00},
		{5, 1, 0x45},
		{0, 2, 0x14},
		{19, 3, 0x67},
		{-5, -1, 0x00},
		{25, 0, 0x13},
		{3, 9, 0x57},
	} {
		if err := dev.SetCursor(test.col, test.row); err != nil {
			t.Fatal(err)
		}
		if got := lastTransfer(t, sim); got != (lcdsim.Transfer{Value: 0x80 | test.want}) {
			t.Errorf("SetCursor(%d, %d) sent %s", test.col, test.row, got)
		}
	}
	_ = dev.SetCursor(18, 2)
	_ = dev.Print("ok")
	if got := sim.Text()[2]; got != "                  ok" {
		t.Errorf("Text()[2]=%q", got)
	}
	checkTiming(t, sim)
}

func TestDefineGlyph(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	bell := [8]byte{0x04, 0x0e, 0x0e, 0x0e, 0x1f, 0x00, 0x04, 0x00}
	sim.ResetLog()
	if err := dev.DefineGlyph(1, bell); err != nil {
		t.Fatal(err)
	}
	tr := sim.Transfers()
	if len(tr) != 9 || tr[0] != (lcdsim.Transfer{Value: 0x48}) {
		t.Fatalf("Transfers()=%v", tr)
	}
	for i, row := range bell {
		if tr[i+1] != (lcdsim.Transfer{Data: true, Value: row}) {
			t.Errorf("row %d sent as %s", i, tr[i+1])
		}
	}
	if got := sim.Glyph(1); got != bell {
		t.Errorf("Glyph(1)=%v", got)
	}
	if _, cg := sim.Address(); !cg {
		t.Error("address counter not left in CGRAM")
	}
	// Slots wrap at 8.
	_ = dev.DefineGlyph(9, [8]byte{0x1f})
	if got := sim.Glyph(1); got != ([8]byte{0x1f}) {
		t.Errorf("Glyph(1)=%v after slot 9", got)
	}
	_ = dev.Home()
	_ = dev.Print("\x01")
	if got := sim.Text()[0][0]; got != 0x01 {
		t.Errorf("glyph printed as 0x%02x", got)
	}
	checkTiming(t, sim)
}

func TestControl(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	_ = dev.Print("kept")
	for _, test := range []struct {
		op   func() error
		want byte
	}{
		{dev.CursorOn, 0x0e},
		{dev.BlinkOn, 0x0f},
		{dev.CursorOff, 0x0d},
		{dev.DisplayOff, 0x09},
		{dev.BlinkOff, 0x08},
		{dev.DisplayOn, 0x0c},
	} {
		if err := test.op(); err != nil {
			t.Fatal(err)
		}
		if got := lastTransfer(t, sim); got != (lcdsim.Transfer{Value: test.want}) {
			t.Errorf("sent %s, want cmd 0x%02x", got, test.want)
		}
	}
	if !sim.DisplayOn() || sim.CursorOn() || sim.BlinkOn() {
		t.Error("unexpected display control")
	}
	if got := sim.Text()[0]; got != "kept            " {
		t.Errorf("DDRAM lost while off: %q", got)
	}
	checkTiming(t, sim)
}

func TestEntryMode(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	for _, test := range []struct {
		op   func() error
		want byte
	}{
		{dev.AutoscrollOn, 0x07},
		{dev.FlowRightToLeft, 0x05},
		{dev.AutoscrollOff, 0x04},
		{dev.FlowLeftToRight, 0x06},
		{dev.FlowRightToLeft, 0x04},
	} {
		if err := test.op(); err != nil {
			t.Fatal(err)
		}
		if got := lastTransfer(t, sim); got != (lcdsim.Transfer{Value: test.want}) {
			t.Errorf("sent %s, want cmd 0x%02x", got, test.want)
		}
	}
	_ = dev.SetCursor(4, 0)
	_ = dev.Print("cba")
	if got := sim.Text()[0]; got != "  abc           " {
		t.Errorf("right to left Text()[0]=%q", got)
	}
	checkTiming(t, sim)
}

func TestAutoscroll(t *testing.T) {
	dev, sim := getSim(t, 8, 1, 4)
	_ = dev.SetCursor(7, 0)
	_ = dev.AutoScroll(true)
	_ = dev.Print("ab")
	if sim.Shift() != -2 {
		t.Errorf("Shift()=%d", sim.Shift())
	}
	if got := sim.Text()[0]; got != "     ab " {
		t.Errorf("Text()[0]=%q", got)
	}
	_ = dev.AutoScroll(false)
	if sim.ShiftOnWrite() {
		t.Error("autoscroll still on")
	}
	checkTiming(t, sim)
}

func TestScroll(t *testing.T) {
	dev, sim := getSim(t, 8, 1, 8)
	_ = dev.Print("abc")
	_ = dev.ScrollRight()
	if got := lastTransfer(t, sim); got.Value != 0x1c {
		t.Errorf("ScrollRight sent %s", got)
	}
	if got := sim.Text()[0]; got != " abc    " {
		t.Errorf("Text()[0]=%q", got)
	}
	_ = dev.ScrollLeft()
	_ = dev.ScrollLeft()
	if got := lastTransfer(t, sim); got.Value != 0x18 {
		t.Errorf("ScrollLeft sent %s", got)
	}
	if got := sim.Text()[0]; got != "bc      " {
		t.Errorf("Text()[0]=%q", got)
	}
	if ac, _ := sim.Address(); ac != 3 {
		t.Errorf("scroll moved the cursor to %d", ac)
	}
	checkTiming(t, sim)
}

func TestCursorModes(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	for _, test := range []struct {
		modes []display.CursorMode
		want  byte
	}{
		{[]display.CursorMode{display.CursorUnderline}, 0x0e},
		{[]display.CursorMode{display.CursorBlink}, 0x0f},
		{[]display.CursorMode{display.CursorOff}, 0x0c},
		{[]display.CursorMode{display.CursorOff, display.CursorBlock}, 0x0d},
	} {
		if err := dev.Cursor(test.modes...); err != nil {
			t.Fatal(err)
		}
		if got := lastTransfer(t, sim); got.Value != test.want {
			t.Errorf("Cursor(%v) sent %s", test.modes, got)
		}
	}
	if err := dev.Cursor(display.CursorMode(99)); err == nil {
		t.Error("Cursor(99) succeeded")
	}
}

func TestMove(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	_ = dev.Move(display.Forward)
	_ = dev.Move(display.Forward)
	_ = dev.Move(display.Backward)
	if ac, _ := sim.Address(); ac != 1 {
		t.Errorf("Address()=%d", ac)
	}
	if got := lastTransfer(t, sim); got.Value != 0x10 {
		t.Errorf("Move(Backward) sent %s", got)
	}
	if err := dev.Move(display.Down); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("Move(Down)=%v", err)
	}
}

func TestMoveTo(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	for _, rc := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 17}} {
		if err := dev.MoveTo(rc[0], rc[1]); err == nil {
			t.Errorf("MoveTo(%d, %d) succeeded", rc[0], rc[1])
		}
	}
	if err := dev.MoveTo(2, 16); err != nil {
		t.Fatal(err)
	}
	if ac, _ := sim.Address(); ac != 0x4f {
		t.Errorf("Address()=0x%02x", ac)
	}
	if dev.MinRow() != 1 || dev.MinCol() != 1 {
		t.Error("MoveTo is one based")
	}
}

func TestWrite(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	n, err := dev.Write([]byte("abc"))
	if n != 3 || err != nil {
		t.Errorf("Write()=%d, %v", n, err)
	}
	n, err = dev.WriteString("de")
	if n != 2 || err != nil {
		t.Errorf("WriteString()=%d, %v", n, err)
	}
	if got := sim.Text()[0]; got != "abcde           " {
		t.Errorf("Text()[0]=%q", got)
	}
}

func TestWritePartial(t *testing.T) {
	for _, test := range []struct {
		name  string
		write func(dev *Dev) (int, error)
	}{
		{"Write", func(dev *Dev) (int, error) { return dev.Write([]byte("abcd")) }},
		{"WriteString", func(dev *Dev) (int, error) { return dev.WriteString("abcd") }},
	} {
		t.Run(test.name, func(t *testing.T) {
			var log []string
			pins := recPins(&log, "D4", "D5", "D6", "D7", "RS")
			// A 4-bit byte is 2 strobes of 3 edges: E dies on the third byte.
			e := &countPin{Pin: gpiotest.Pin{N: "E"}, ok: 12}
			dev, err := New(&Opts{Data: pins[:4], RS: pins[4], E: e, Sleep: func(time.Duration) {}})
			if err != nil {
				t.Fatal(err)
			}
			dev.begun = true
			n, err := test.write(dev)
			if n != 2 || err == nil {
				t.Errorf("%s()=%d, %v; want 2 and an error", test.name, n, err)
			}
		})
	}
}

func TestBacklight(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if !sim.BacklightOn() {
		t.Error("backlight off")
	}
	_ = dev.Backlight(0)
	if sim.BacklightOn() {
		t.Error("backlight on")
	}

	low := NewBacklightActiveLow(sim.Backlight())
	_ = low.Backlight(1)
	if sim.BacklightOn() {
		t.Error("active low backlight driven high")
	}

	bare, _ := New(&Opts{Data: sim.DataPins(), RS: sim.RS(), E: sim.E(), Sleep: sim.Sleep})
	if err := bare.Backlight(0xff); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("Backlight() without a backlight=%v", err)
	}
}

func TestHalt(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	_ = dev.Backlight(0xff)
	_ = dev.Print("bye")
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if sim.DisplayOn() || sim.BacklightOn() {
		t.Error("display or backlight still on")
	}
	if got := sim.Text()[0]; strings.TrimSpace(got) != "" {
		t.Errorf("Text()[0]=%q", got)
	}
	if s := dev.String(); !strings.HasPrefix(s, "hd44780{") {
		t.Errorf("String()=%q", s)
	}
}

func TestInterface(t *testing.T) {
	dev, sim := getSim(t, 16, 2, 4)
	defer func() { _ = dev.Halt() }()
	errs := displaytest.TestTextDisplay(dev, false)
	for _, err := range errs {
		if !errors.Is(err, display.ErrNotImplemented) {
			t.Error(err)
		}
	}
	checkTiming(t, sim)
}

func TestPCF857xBackpack(t *testing.T) {
	bus := &i2ctest.Record{}
	dev, err := NewPCF857xBackpack(bus, 0x27, 16, 2, Font5x8)
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Print("A"); err != nil {
		t.Fatal(err)
	}
	// Replay the expander writes, latching the upper nibble on every
	// falling edge of E (P2).
	var latched []string
	prev := byte(0)
	for _, op := range bus.Ops {
		if op.Addr != 0x27 || len(op.W) != 1 || len(op.R) != 0 {
			t.Fatalf("unexpected I²C op %#v", op)
		}
		cur := op.W[0]
		if prev&0x04 != 0 && cur&0x04 == 0 {
			latched = append(latched, fmt.Sprintf("%d:%x", cur&0x01, cur>>4))
		}
		prev = cur
	}
	want := []string{
		"0:3", "0:3", "0:3", "0:2",
		"0:2", "0:8", "0:0", "0:c", "0:0", "0:4", "0:0", "0:6",
		"1:4", "1:1",
	}
	if diff := cmp.Diff(want, latched); diff != "" {
		t.Errorf("latched nibbles (-want +got):\n%s", diff)
	}
	if prev&0x08 == 0 {
		t.Error("backlight (P3) is off")
	}
	if prev&0x02 != 0 {
		t.Error("R/W (P1) is high")
	}
}

func TestAdafruitI2CBackpack(t *testing.T) {
	bus := &i2ctest.Record{}
	dev, err := NewAdafruitI2CBackpack(bus, 0x20, 16, 2, Font5x8)
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Print("A"); err != nil {
		t.Fatal(err)
	}
	// Replay the OLAT writes, latching GP3..GP6 on every falling edge of E
	// (GP2). RS is GP1.
	var latched []string
	prev, iodir := byte(0), byte(0xff)
	for _, op := range bus.Ops {
		if op.Addr != 0x20 || len(op.W) != 2 || len(op.R) != 0 {
			t.Fatalf("unexpected I²C op %#v", op)
		}
		switch op.W[0] {
		case 0x00:
			iodir = op.W[1]
			continue
		case 0x0a:
		default:
			t.Fatalf("write to register 0x%02x", op.W[0])
		}
		cur := op.W[1]
		if prev&0x04 != 0 && cur&0x04 == 0 {
			latched = append(latched, fmt.Sprintf("%d:%x", cur>>1&1, cur>>3&0x0f))
		}
		prev = cur
	}
	want := []string{
		"0:3", "0:3", "0:3", "0:2",
		"0:2", "0:8", "0:0", "0:c", "0:0", "0:4", "0:0", "0:6",
		"1:4", "1:1",
	}
	if diff := cmp.Diff(want, latched); diff != "" {
		t.Errorf("latched nibbles (-want +got):\n%s", diff)
	}
	if iodir != 0x01 {
		t.Errorf("IODIR=0x%02x, want GP1..GP7 as outputs", iodir)
	}
	if prev&0x80 == 0 {
		t.Error("backlight (GP7) is off")
	}
}
