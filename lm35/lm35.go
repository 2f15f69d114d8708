// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lm35 reads the TI LM35 analog temperature sensor through any
// analog.PinADC.
//
// The sensor outputs 10mV per degree Celsius with no offset, so the
// conversion is purely a scaling of the measured voltage. Accuracy is
// bounded by the ADC's reference, not by this package.
//
// Implements physic.SenseEnv
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/lm35.pdf
package lm35

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

const packageName = "lm35"

// Dev is a handle to an LM35 wired to an ADC input.
type Dev struct {
	mu       sync.Mutex
	adc      analog.PinADC
	shutdown chan bool
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New returns a handle to the sensor on the given ADC input.
func New(adc analog.PinADC) *Dev {
	return &Dev{adc: adc}
}

// temperature converts the sensor output voltage to a temperature.
// 10mV per degree Celsius means 1nV is 100nK above zero Celsius.
func temperature(v physic.ElectricPotential) physic.Temperature {
	return physic.ZeroCelsius + 100*physic.Temperature(v)
}

// Sense samples the ADC once and writes the temperature to env.
// Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	s, err := dev.adc.Read()
	if err != nil {
		return wrap(err)
	}
	env.Temperature = temperature(s.V)
	return nil
}

// SenseContinuous samples at the given interval and writes readings to the
// returned channel until Halt() is called. Implements physic.SenseEnv.
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New(packageName + ": already sensing continuously")
	}
	channelSize := 16
	dev.shutdown = make(chan bool)
	channel := make(chan physic.Env, channelSize)
	go func(channel chan physic.Env, shutdown <-chan bool) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				close(channel)
				return
			case <-ticker.C:
				e := physic.Env{}
				err := dev.Sense(&e)
				if err == nil && len(channel) < channelSize {
					channel <- e
				}
			}
		}
	}(channel, dev.shutdown)
	return channel, nil
}

// Precision reports the smallest temperature step the backing ADC can
// resolve. Implements physic.SenseEnv.
func (dev *Dev) Precision(env *physic.Env) {
	min, max := dev.adc.Range()
	if max.Raw > min.Raw {
		lsb := (max.V - min.V) / physic.ElectricPotential(max.Raw-min.Raw)
		env.Temperature = 100 * physic.Temperature(lsb)
	}
	env.Pressure = 0
	env.Humidity = 0
}

// Halt stops a SenseContinuous operation if one is in progress.
// Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s: %s", packageName, dev.adc.Name())
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
