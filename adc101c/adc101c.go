// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adc101c reads the TI ADC101C021/027 10-bit I²C analog-to-digital
// converter.
//
// The converter is placed in automatic conversion mode at startup so a read
// of the conversion register always returns a fresh sample.
//
// Implements periph.io/x/conn/analog/PinADC
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/adc101c021.pdf
package adc101c

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

const (
	// DefaultAddress is the converter's address with ADR floating.
	DefaultAddress uint16 = 0x50

	conversionRegister byte = 0x00
	configRegister     byte = 0x02

	// Automatic conversion mode, fastest cycle.
	autoConversion byte = 0x20

	maxCount = 0x3ff

	packageName = "adc101c"
)

// Opts holds the configuration options.
type Opts struct {
	// VRef is the supply voltage the converter scales against. Defaults to
	// 5V, the reference of the original board design.
	VRef physic.ElectricPotential
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{VRef: 5 * physic.Volt}

// Dev is a handle to the converter on a bus.
type Dev struct {
	mu   sync.Mutex
	d    *i2c.Dev
	vref physic.ElectricPotential
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New configures the converter for automatic conversion and returns a handle
// to it.
func New(bus i2c.Bus, address uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	vref := opts.VRef
	if vref == 0 {
		vref = DefaultOpts.VRef
	}
	dev := &Dev{
		d:    &i2c.Dev{Bus: bus, Addr: address},
		vref: vref,
	}
	if err := dev.d.Tx([]byte{configRegister, autoConversion}, nil); err != nil {
		return nil, wrap(err)
	}
	return dev, nil
}

// Read returns the latest conversion. Raw is the 10-bit count, V the count
// scaled against VRef.
func (dev *Dev) Read() (analog.Sample, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var buf [2]byte
	if err := dev.d.Tx([]byte{conversionRegister}, buf[:]); err != nil {
		return analog.Sample{}, wrap(err)
	}
	// 12 bit register, D1-D0 reserved, result left aligned.
	raw := int32(binary.BigEndian.Uint16(buf[:])&0xfff) >> 2
	return analog.Sample{
		Raw: raw,
		V:   dev.vref / maxCount * physic.ElectricPotential(raw),
	}, nil
}

// Range returns the [min, max] of readable values.
func (dev *Dev) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: maxCount, V: dev.vref}
}

// Name of the pin.
func (dev *Dev) Name() string {
	return packageName
}

// Number of the pin. The converter has a single input channel.
func (dev *Dev) Number() int {
	return 0
}

// Function returns the pin function.
func (dev *Dev) Function() string {
	return "ADC"
}

// Halt is a no-op; the converter keeps converting but nothing reads it.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s: %s", packageName, dev.d.String())
}

var _ analog.PinADC = &Dev{}
var _ pin.Pin = &Dev{}
