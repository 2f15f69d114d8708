// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command lcdtherm samples an LM35 temperature sensor through an ADC101C
// converter and shows whole degrees Celsius on a 1602 character LCD.
//
// With -emulate it runs against an emulated panel on the terminal instead of
// hardware, optionally serving a PNG snapshot of the panel over HTTP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/vmluong/lcdtherm/adc101c"
	"github.com/vmluong/lcdtherm/lcd1602"
	"github.com/vmluong/lcdtherm/lm35"
	"github.com/vmluong/lcdtherm/screen1602"
)

// rampPin stands in for the LM35 when emulating: it sweeps through room
// temperatures at 10mV per degree.
type rampPin struct {
	step int
}

func (p *rampPin) Read() (analog.Sample, error) {
	c := 20 + p.step%16
	p.step++
	return analog.Sample{V: physic.ElectricPotential(c) * 10 * physic.MilliVolt}, nil
}

func (p *rampPin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: 1023, V: 5 * physic.Volt}
}

func (p *rampPin) Name() string     { return "ramp" }
func (p *rampPin) Number() int      { return 0 }
func (p *rampPin) Function() string { return "ADC" }
func (p *rampPin) Halt() error      { return nil }
func (p *rampPin) String() string   { return "ramp" }

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use (default: the first available)")
	lcdAddr := flag.Uint("lcd", uint(lcd1602.DefaultAddress), "I²C address of the LCD backpack")
	adcAddr := flag.Uint("adc", uint(adc101c.DefaultAddress), "I²C address of the ADC")
	vref := flag.Uint("vref", 5000, "ADC reference voltage in millivolts")
	interval := flag.Duration("interval", time.Second, "time between samples")
	emulate := flag.Bool("emulate", false, "render to the terminal instead of hardware")
	httpAddr := flag.String("http", "", "with -emulate, serve a PNG snapshot of the panel at this address")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	var bus i2c.Bus
	var sensorPin analog.PinADC
	if *emulate {
		emu := screen1602.New(&screen1602.Opts{Addr: uint16(*lcdAddr)})
		if *httpAddr != "" {
			go func() {
				log.Fatal(http.ListenAndServe(*httpAddr, emu))
			}()
		}
		bus = emu
		sensorPin = &rampPin{}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		b, err := i2creg.Open(*busName)
		if err != nil {
			return err
		}
		defer b.Close()
		bus = b
		sensorPin, err = adc101c.New(b, uint16(*adcAddr), &adc101c.Opts{
			VRef: physic.ElectricPotential(*vref) * physic.MilliVolt,
		})
		if err != nil {
			return err
		}
	}

	sensor := lm35.New(sensorPin)
	defer func() {
		_ = sensor.Halt()
	}()

	lcd, err := lcd1602.New(bus, uint16(*lcdAddr), 2, 16)
	if err != nil {
		return err
	}

	// Static banner once, so the sampling loop repaints only the reading.
	if err = lcd.Clear(); err != nil {
		return err
	}
	if err = lcd.MoveTo(1, 1); err != nil {
		return err
	}
	if _, err = lcd.WriteString("Temperature:"); err != nil {
		return err
	}

	readings, err := sensor.SenseContinuous(*interval)
	if err != nil {
		return err
	}
	for e := range readings {
		// Whole degrees, truncated toward zero, the way the original board
		// firmware formatted them.
		text := fmt.Sprintf("%d C ", int(e.Temperature.Celsius()))
		if err = lcd.MoveTo(2, 1); err != nil {
			return err
		}
		if _, err = lcd.WriteString(text); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "lcdtherm: %s.\n", err)
		os.Exit(1)
	}
}
