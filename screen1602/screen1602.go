// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1602 emulates an HD44780 character LCD behind a PCF8574 I²C
// backpack and renders it to the terminal using ANSI color codes.
//
// It implements i2c.Bus, so a driver that talks the 4-bit backpack protocol
// can run against it unmodified: enable strobes latch nibbles, the register
// select bit routes them to the instruction or data register, and the
// backlight bit lights the rendered panel.
//
// Useful while you are waiting for your display module to come by mail, and
// as a protocol-level test double.
package screen1602

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Backpack latch bit assignment, matching the common PCF8574 modules.
const (
	rsBit        byte = 0x01
	enableBit    byte = 0x04
	backlightBit byte = 0x08

	// DDRAM row origins of the 16x2 / 20x4 layouts.
	row2Addr byte = 0x40
	row3Addr byte = 0x14
	row4Addr byte = 0x54

	// Highest DDRAM address of a 2-line controller.
	lastAddr byte = 0x67
	// Last address of the first line before the counter jumps to row2Addr.
	row1Wrap byte = 0x27
)

// Opts represents the options available for this display.
type Opts struct {
	// Addr is the I²C address the emulated backpack answers on. Defaults to
	// 0x27.
	Addr uint16
	// Rows and Cols of the panel. Default 2x16.
	Rows, Cols int
	// W receives the terminal rendering. Defaults to a colorable stdout;
	// pass io.Discard to silence it.
	W io.Writer
	// Palette used to quantize the backlight color. Defaults to
	// ansi256.Default.
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a 1602-style character LCD emulator that outputs to the console.
type Dev struct {
	addr    uint16
	rows    int
	cols    int
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
	framed  bool

	mu        sync.Mutex
	ddram     [lastAddr + 1]byte
	ac        byte
	prev      byte
	fourBit   bool
	haveHigh  bool
	hiNibble  byte
	cgram     bool
	backlight bool
	on        bool
	cursor    bool
	blink     bool
	increment bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		addr:      opts.Addr,
		rows:      opts.Rows,
		cols:      opts.Cols,
		w:         opts.W,
		palette:   *p,
		increment: true,
	}
	if d.addr == 0 {
		d.addr = 0x27
	}
	if d.rows == 0 {
		d.rows = 2
	}
	if d.cols == 0 {
		d.cols = 16
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	for i := range d.ddram {
		d.ddram[i] = ' '
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("screen1602{%dx%d@%#02x}", d.cols, d.rows, d.addr)
}

// SetSpeed is a no-op; the emulator accepts any bus speed.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	return nil
}

// Halt implements conn.Resource.
//
// It resets the terminal so it is not left with colors applied.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Tx accepts backpack latch values and interprets them. Reads are rejected;
// the emulated module is write-only like the cheap hardware it stands in
// for.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	if addr != d.addr {
		return fmt.Errorf("screen1602: no device at address %#02x", addr)
	}
	if len(r) != 0 {
		return errors.New("screen1602: read not supported")
	}
	d.mu.Lock()
	for _, b := range w {
		if d.processByte(b) {
			// The interface width just changed; the controller picks up
			// nibble pairing from the next transaction.
			break
		}
	}
	d.mu.Unlock()
	d.refresh()
	return nil
}

// processByte consumes one latch value. It reports whether the interface
// switched between 8 and 4-bit mode, which invalidates the rest of the
// burst.
func (d *Dev) processByte(b byte) bool {
	d.backlight = b&backlightBit != 0
	switched := false
	if d.prev&enableBit != 0 && b&enableBit == 0 {
		switched = d.latch(d.prev)
	}
	d.prev = b
	return switched
}

// latch consumes the nibble present on the falling enable edge.
func (d *Dev) latch(p byte) bool {
	nibble := p & 0xf0
	data := p&rsBit != 0
	if !d.fourBit {
		// 8-bit era: the low data lines are unconnected, so the nibble is
		// the whole instruction.
		wasFourBit := d.fourBit
		d.execute(nibble, data)
		return d.fourBit != wasFourBit
	}
	if !d.haveHigh {
		d.hiNibble = nibble
		d.haveHigh = true
		return false
	}
	d.haveHigh = false
	wasFourBit := d.fourBit
	d.execute(d.hiNibble|nibble>>4, data)
	return d.fourBit != wasFourBit
}

// execute runs one assembled instruction or data byte on the controller
// model.
func (d *Dev) execute(v byte, data bool) {
	if data {
		if d.cgram {
			// Custom glyph uploads are not modeled.
			return
		}
		d.ddram[d.normalize(d.ac)] = v
		d.advance()
		return
	}
	switch {
	case v&0x80 != 0: // set DDRAM address
		d.ac = v & 0x7f
		d.cgram = false
	case v&0x40 != 0: // set CGRAM address
		d.cgram = true
	case v&0x20 != 0: // function set
		d.fourBit = v&0x10 == 0
	case v&0x10 != 0: // cursor or display shift
		if v&0x08 == 0 {
			if v&0x04 != 0 {
				d.advance()
			} else {
				d.retreat()
			}
		}
		// Display shift is not modeled.
	case v&0x08 != 0: // display control
		d.on = v&0x04 != 0
		d.cursor = v&0x02 != 0
		d.blink = v&0x01 != 0
	case v&0x04 != 0: // entry mode set
		d.increment = v&0x02 != 0
	case v&0x02 != 0: // return home
		d.ac = 0
		d.cgram = false
	case v&0x01 != 0: // clear display
		for i := range d.ddram {
			d.ddram[i] = ' '
		}
		d.ac = 0
		d.increment = true
		d.cgram = false
	}
}

// normalize folds an address into the valid 2-line DDRAM windows.
func (d *Dev) normalize(ac byte) byte {
	if ac <= row1Wrap {
		return ac
	}
	if ac >= row2Addr && ac <= lastAddr {
		return ac
	}
	if ac < row2Addr {
		return ac - row1Wrap - 1 + row2Addr
	}
	return ac - lastAddr - 1
}

// advance moves the address counter forward with the controller's row jump.
func (d *Dev) advance() {
	switch d.ac {
	case row1Wrap:
		d.ac = row2Addr
	case lastAddr:
		d.ac = 0
	default:
		d.ac = d.normalize(d.ac + 1)
	}
}

func (d *Dev) retreat() {
	switch d.ac {
	case row2Addr:
		d.ac = row1Wrap
	case 0:
		d.ac = lastAddr
	default:
		d.ac = d.normalize(d.ac - 1)
	}
}

func (d *Dev) rowBase(row int) byte {
	switch row {
	case 2:
		return row2Addr
	case 3:
		return row3Addr
	case 4:
		return row4Addr
	default:
		return 0
	}
}

// Text returns the DDRAM characters of the visible columns of row (1 based),
// regardless of whether the display is switched on. Unprintable CGROM codes
// come back as spaces.
func (d *Dev) Text(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked(row)
}

func (d *Dev) textLocked(row int) string {
	base := d.rowBase(row)
	line := make([]byte, d.cols)
	for i := range line {
		c := d.ddram[d.normalize(base+byte(i))]
		if c < 0x20 || c > 0x7e {
			c = ' '
		}
		line[i] = c
	}
	return string(line)
}

// Backlight reports the state of the backpack's backlight bit.
func (d *Dev) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

// refresh redraws the whole panel in place: a backlight colored border and
// the character rows in reverse video.
func (d *Dev) refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
	if d.framed {
		fmt.Fprintf(&d.buf, "\033[%dA\r", d.rows+2)
	}
	d.framed = true

	bl := color.NRGBA{R: 0x30, G: 0x34, B: 0x38, A: 255}
	if d.backlight {
		bl = color.NRGBA{R: 0x40, G: 0x90, B: 0xff, A: 255}
	}
	border := ""
	for i := 0; i < d.cols+2; i++ {
		border += d.palette.Block(bl)
	}
	d.buf.WriteString(border)
	d.buf.WriteString("\033[0m\n")
	for row := 1; row <= d.rows; row++ {
		text := d.textLocked(row)
		if !d.on {
			text = string(bytes.Repeat([]byte{' '}, d.cols))
		}
		d.buf.WriteString(d.palette.Block(bl))
		d.buf.WriteString("\033[0m\033[7m")
		d.buf.WriteString(text)
		d.buf.WriteString("\033[0m")
		d.buf.WriteString(d.palette.Block(bl))
		d.buf.WriteString("\033[0m\n")
	}
	d.buf.WriteString(border)
	d.buf.WriteString("\033[0m\n")
	_, _ = d.buf.WriteTo(d.w)
}

var _ i2c.Bus = &Dev{}
