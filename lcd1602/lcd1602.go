// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd1602 controls an HD44780 compatible character LCD wired behind a
// PCF8574 style I²C backpack in 4-bit mode.
//
// Unlike expander drivers that bit-bang each expander pin separately, this
// driver encodes a whole enable strobe cycle into the I²C payload: every
// logical byte is sent as one 4-byte bus transaction, two nibbles with the
// enable bit toggled high then low. The falling edge of the enable bit latches
// the nibble on the controller.
//
// Implements periph.io/x/conn/display/TextDisplay
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package lcd1602

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

type writeMode bool

const (
	modeCommand writeMode = false
	modeData    writeMode = true

	// HD44780 instruction set.
	clearDisplay   byte = 0x01
	returnHome     byte = 0x02
	entryModeSet   byte = 0x04
	displayControl byte = 0x08
	cursorShift    byte = 0x10
	functionSet    byte = 0x20
	setDDRAMAddr   byte = 0x80

	// Function set flags.
	twoLines byte = 0x08

	// Display control flags.
	displayOn byte = 0x04
	cursorOn  byte = 0x02
	blinkOn   byte = 0x01

	// Entry mode flags.
	increment byte = 0x02

	// Raw function-set bytes used during the interface resync. The controller
	// may be in either bit mode after power-up, so only the upper nibble of
	// these is meaningful to it.
	sync8Bit byte = 0x30
	sync4Bit byte = 0x20

	// Control bits of the backpack output latch.
	rsBit        byte = 0x01
	enableBit    byte = 0x04
	backlightBit byte = 0x08

	// DefaultAddress is the factory address of most PCF8574 backpacks.
	DefaultAddress uint16 = 0x27

	packageName = "lcd1602"
)

// Controller timing margins. These are empirical values from the datasheet
// power-on procedure, not derived, and must not be reduced.
const (
	powerOnSettle = 50 * time.Millisecond
	resyncSettle  = 5 * time.Millisecond
	commandSettle = 1 * time.Millisecond
	clearSettle   = 2 * time.Millisecond
)

var ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

var rowConstants = [][]byte{{0, 0, 64}, {0, 0, 64, 20, 84}}

// Return the row offset value
func getRowConstant(row, maxcols int) byte {
	var offset int
	if maxcols != 16 {
		offset = 1
	}
	return rowConstants[offset][row]
}

// Dev is a handle to an LCD behind an I²C backpack.
type Dev struct {
	rows int
	cols int

	mu        sync.Mutex
	d         *i2c.Dev
	on        bool
	cursor    bool
	blink     bool
	backlight bool
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New creates an LCD on the supplied bus and runs the controller's power-on
// initialization, leaving it in 4-bit mode, display on, cursor and blink off,
// backlight on, cursor at the origin.
//
// The device owns the address for its lifetime; nothing else should write to
// it concurrently.
func New(bus i2c.Bus, address uint16, rows, cols int) (*Dev, error) {
	dev := &Dev{
		d:         &i2c.Dev{Bus: bus, Addr: address},
		rows:      rows,
		cols:      cols,
		on:        true,
		backlight: true,
	}
	if err := dev.init(); err != nil {
		return nil, wrap(err)
	}
	return dev, nil
}

// sendByte transmits one byte to the controller as a burst of 4 backpack
// latch values: {high nibble, EN=1}, {high nibble, EN=0}, {low nibble, EN=1},
// {low nibble, EN=0}. The burst is a single bus transaction so the nibble
// order and strobe edges cannot be split by other traffic.
//
// The transport status is returned, not acted on; a lost burst leaves the
// controller out of step until the next power cycle.
func (dev *Dev) sendByte(value byte, mode writeMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	var ctl byte
	if mode == modeData {
		ctl |= rsBit
	}
	if dev.backlight {
		ctl |= backlightBit
	}
	hi := value & 0xf0
	lo := (value << 4) & 0xf0
	burst := [4]byte{
		hi | ctl | enableBit,
		hi | ctl,
		lo | ctl | enableBit,
		lo | ctl,
	}
	return dev.d.Tx(burst[:], nil)
}

// sendCommand writes value to the controller's instruction register.
func (dev *Dev) sendCommand(value byte) error {
	return dev.sendByte(value, modeCommand)
}

// sendData writes value to the controller's data register at the current
// address counter.
func (dev *Dev) sendData(value byte) error {
	return dev.sendByte(value, modeData)
}

// init brings the controller from its unknown power-on state into 4-bit,
// 2-line, display-on state. The steps are order dependent and paced by fixed
// delays; the busy flag is not readable through a write-only backpack.
func (dev *Dev) init() error {
	// The controller's internal reset needs this long before it accepts
	// anything at all.
	time.Sleep(powerOnSettle)

	// Resync procedure from the datasheet: three 8-bit function sets force a
	// known interface state regardless of what mode the controller was left
	// in, then one more switches it to 4-bit. These go out as full bursts;
	// a controller still in 8-bit mode ignores the low 0x0 nibble.
	if err := dev.sendCommand(sync8Bit); err != nil {
		return err
	}
	time.Sleep(resyncSettle)
	for i := 0; i < 2; i++ {
		if err := dev.sendCommand(sync8Bit); err != nil {
			return err
		}
		time.Sleep(commandSettle)
	}
	if err := dev.sendCommand(sync4Bit); err != nil {
		return err
	}
	time.Sleep(commandSettle)

	// From here on the controller consumes two nibbles per byte.
	fn := functionSet
	if dev.rows > 1 {
		fn |= twoLines
	}
	err := dev.sendCommand(fn)
	if err == nil {
		err = dev.Display(true)
	}
	if err == nil {
		err = dev.Clear()
	}
	if err == nil {
		err = dev.sendCommand(entryModeSet | increment)
	}
	if err == nil {
		err = dev.Home()
	}
	return err
}

// Not supported by this device. Returns display.ErrNotImplemented
func (dev *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Clear the display and move the cursor home. The erase cycle is slower than
// every other command and there is no completion signal, so a fixed settle
// time is inserted.
func (dev *Dev) Clear() error {
	err := dev.sendCommand(clearDisplay)
	time.Sleep(clearSettle)
	return wrap(err)
}

// Return the number of columns the display supports
func (dev *Dev) Cols() int {
	return dev.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) (err error) {
	var val = displayControl
	if dev.on {
		val |= displayOn
	}
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			dev.blink = false
			dev.cursor = false
		case display.CursorBlink:
			dev.blink = true
			dev.cursor = true
			val |= blinkOn
		case display.CursorUnderline:
			dev.cursor = true
			dev.blink = true
			val |= cursorOn
		case display.CursorBlock:
			dev.cursor = true
			dev.blink = true
			val |= blinkOn
		default:
			err = fmt.Errorf("%s - unexpected cursor: %d", packageName, mode)
			return
		}
	}
	err = dev.sendCommand(val)
	return wrap(err)
}

// Turn the display on / off
func (dev *Dev) Display(on bool) error {
	dev.on = on
	val := displayControl
	if on {
		val |= displayOn
	}
	if dev.blink {
		val |= blinkOn
	}
	if dev.cursor {
		val |= cursorOn
	}
	return wrap(dev.sendCommand(val))
}

// Halt clears the display, turns the display off, and turns the backlight
// off.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Display(false)
	_ = dev.Backlight(0)
	return nil
}

// Move the cursor home (MinRow(),MinCol())
func (dev *Dev) Home() error {
	return wrap(dev.sendCommand(returnHome))
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) (err error) {
	val := cursorShift
	switch dir {
	case display.Backward:

	case display.Forward:
		val |= 0x04
	case display.Down, display.Up:
		fallthrough
	default:
		err = ErrNotImplemented
		return
	}
	err = wrap(dev.sendCommand(val))
	return
}

// Move the cursor to arbitrary position.
func (dev *Dev) MoveTo(row, col int) (err error) {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		err = fmt.Errorf("%s.MoveTo(%d,%d) value out of range", packageName, row, col)
		return
	}
	cmd := setDDRAMAddr | (getRowConstant(row, dev.cols) + byte(col-1))
	err = wrap(dev.sendCommand(cmd))
	return
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s: %s Rows: %d Cols: %d", packageName, dev.d.String(), dev.rows, dev.cols)
}

// Write sends p to the display data register one burst per byte, in order.
// Characters past the visible row width land wherever the controller's own
// address wrap puts them; no wrapping is done here.
func (dev *Dev) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if err = dev.sendData(c); err != nil {
			return n, wrap(err)
		}
		n++
	}
	return n, nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Turn the backlight on or off. The backlight is wired to a backpack latch
// bit, so this writes one bare latch value with the enable bit low; the
// controller never sees it as a transaction. The bit is also carried in every
// later burst.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.backlight = intensity > 0
	var ctl byte
	if dev.backlight {
		ctl = backlightBit
	}
	return wrap(dev.d.Tx([]byte{ctl}, nil))
}

var _ conn.Resource = &Dev{}
var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
