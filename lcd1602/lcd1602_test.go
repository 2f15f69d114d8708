// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import (
	"bytes"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const (
	testAddr uint16 = 0x27
	testRows        = 2
	testCols        = 16
)

// newRecorded returns a Dev wired to a write-only recording bus, skipping the
// power-on sequence so tests see only the ops they cause.
func newRecorded() (*Dev, *i2ctest.Record) {
	rec := &i2ctest.Record{}
	dev := &Dev{
		d:         &i2c.Dev{Bus: rec, Addr: testAddr},
		rows:      testRows,
		cols:      testCols,
		on:        true,
		backlight: true,
	}
	return dev, rec
}

// burst is the reference wire encoding of one byte: high then low nibble,
// enable strobed high then low, control bits carried in every payload.
func burst(value, ctl byte) []byte {
	hi := value & 0xf0
	lo := (value << 4) & 0xf0
	return []byte{hi | ctl | enableBit, hi | ctl, lo | ctl | enableBit, lo | ctl}
}

func checkOps(t *testing.T, ops []i2ctest.IO, want [][]byte) {
	t.Helper()
	if len(ops) != len(want) {
		t.Fatalf("expected %d bus transactions, got %d", len(want), len(ops))
	}
	for i, op := range ops {
		if op.Addr != testAddr {
			t.Errorf("op %d: expected addr %#02x, got %#02x", i, testAddr, op.Addr)
		}
		if len(op.R) != 0 {
			t.Errorf("op %d: unexpected read of %d bytes", i, len(op.R))
		}
		if !bytes.Equal(op.W, want[i]) {
			t.Errorf("op %d: expected % #02x, got % #02x", i, want[i], op.W)
		}
	}
}

func TestSendByteAllValues(t *testing.T) {
	for _, mode := range []writeMode{modeCommand, modeData} {
		ctl := backlightBit
		if mode == modeData {
			ctl |= rsBit
		}
		dev, rec := newRecorded()
		for v := 0; v < 256; v++ {
			if err := dev.sendByte(byte(v), mode); err != nil {
				t.Fatal(err)
			}
		}
		if len(rec.Ops) != 256 {
			t.Fatalf("expected 256 transactions, got %d", len(rec.Ops))
		}
		for v, op := range rec.Ops {
			if !bytes.Equal(op.W, burst(byte(v), ctl)) {
				t.Errorf("value %#02x mode %v: expected % #02x, got % #02x",
					v, mode, burst(byte(v), ctl), op.W)
			}
			if len(op.W) != 4 {
				t.Errorf("value %#02x: burst must be one 4-byte transaction", v)
			}
		}
	}
}

// The burst for a command and the burst for a data byte of the same value may
// differ only in the register select bit.
func TestModeBitIsolation(t *testing.T) {
	dev, rec := newRecorded()
	for v := 0; v < 256; v++ {
		if err := dev.sendCommand(byte(v)); err != nil {
			t.Fatal(err)
		}
		if err := dev.sendData(byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	for v := 0; v < 256; v++ {
		cmd := rec.Ops[2*v].W
		data := rec.Ops[2*v+1].W
		for i := range cmd {
			if cmd[i]&^rsBit != data[i]&^rsBit {
				t.Errorf("value %#02x byte %d: nibble bits differ: %#02x vs %#02x",
					v, i, cmd[i], data[i])
			}
			if cmd[i]&rsBit != 0 {
				t.Errorf("value %#02x byte %d: RS set on command", v, i)
			}
			if data[i]&rsBit == 0 {
				t.Errorf("value %#02x byte %d: RS clear on data", v, i)
			}
		}
	}
}

func TestFunctionSetScenario(t *testing.T) {
	dev, rec := newRecorded()
	if err := dev.sendCommand(0x20); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, [][]byte{{0x2c, 0x28, 0x0c, 0x08}})
}

// A raw sync byte goes out as a regular burst with a zero low nibble.
func TestRawSyncByte(t *testing.T) {
	dev, rec := newRecorded()
	if err := dev.sendCommand(sync8Bit); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, [][]byte{{0x3c, 0x38, 0x0c, 0x08}})
}

func TestWriteEmpty(t *testing.T) {
	dev, rec := newRecorded()
	n, err := dev.Write(nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 bytes written, got %d", n)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("empty write must not touch the bus, got %d transactions", len(rec.Ops))
	}
}

func TestWriteTemperatureString(t *testing.T) {
	dev, rec := newRecorded()
	n, err := dev.WriteString("27 C ")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("expected 5 bytes written, got %d", n)
	}
	want := make([][]byte, 0, 5)
	for _, c := range []byte{'2', '7', ' ', 'C', ' '} {
		want = append(want, burst(c, backlightBit|rsBit))
	}
	checkOps(t, rec.Ops, want)
}

// New must emit the power-on sequence in strict order: three 8-bit syncs, the
// 4-bit switch, function set, display control, clear, entry mode, home.
func TestInitSequence(t *testing.T) {
	rec := &i2ctest.Record{}
	if _, err := New(rec, testAddr, testRows, testCols); err != nil {
		t.Fatal(err)
	}
	cmds := []byte{
		sync8Bit, sync8Bit, sync8Bit,
		sync4Bit,
		functionSet | twoLines,
		displayControl | displayOn,
		clearDisplay,
		entryModeSet | increment,
		returnHome,
	}
	want := make([][]byte, 0, len(cmds))
	for _, c := range cmds {
		want = append(want, burst(c, backlightBit))
	}
	checkOps(t, rec.Ops, want)
}

// The delay minimums are hardware margins from the datasheet. They may grow,
// never shrink.
func TestTimingMargins(t *testing.T) {
	if powerOnSettle < 50*time.Millisecond {
		t.Errorf("power-on settle %v below 50ms minimum", powerOnSettle)
	}
	if resyncSettle < 5*time.Millisecond {
		t.Errorf("resync settle %v below 5ms minimum", resyncSettle)
	}
	if commandSettle < 1*time.Millisecond {
		t.Errorf("command settle %v below 1ms minimum", commandSettle)
	}
	if clearSettle < 2*time.Millisecond {
		t.Errorf("clear settle %v below 2ms minimum", clearSettle)
	}
}

func TestMoveTo(t *testing.T) {
	dev, rec := newRecorded()
	if err := dev.MoveTo(1, 1); err != nil {
		t.Error(err)
	}
	if err := dev.MoveTo(2, 1); err != nil {
		t.Error(err)
	}
	if err := dev.MoveTo(2, 5); err != nil {
		t.Error(err)
	}
	checkOps(t, rec.Ops, [][]byte{
		burst(0x80, backlightBit),
		burst(0xc0, backlightBit),
		burst(0xc4, backlightBit),
	})
	for _, pos := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 17}} {
		if err := dev.MoveTo(pos[0], pos[1]); err == nil {
			t.Errorf("MoveTo(%d,%d): expected out of range error", pos[0], pos[1])
		}
	}
}

// Backlight updates write one bare latch byte with enable low, and flip the
// bit carried by later bursts.
func TestBacklight(t *testing.T) {
	dev, rec := newRecorded()
	if err := dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if err := dev.sendCommand(returnHome); err != nil {
		t.Fatal(err)
	}
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, [][]byte{
		{0x00},
		burst(returnHome, 0),
		{backlightBit},
	})
}

func TestString(t *testing.T) {
	dev, _ := newRecorded()
	if len(dev.String()) == 0 {
		t.Error("String() returned nothing")
	}
	if dev.Rows() != testRows || dev.Cols() != testCols {
		t.Errorf("unexpected geometry %dx%d", dev.Rows(), dev.Cols())
	}
}
