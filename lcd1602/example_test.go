// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602_test

import (
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/vmluong/lcdtherm/lcd1602"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	lcd, err := lcd1602.New(bus, lcd1602.DefaultAddress, 2, 16)
	if err != nil {
		log.Fatal(err)
	}
	_, _ = lcd.WriteString("Temperature:")
	_ = lcd.MoveTo(2, 1)
	_, _ = lcd.WriteString("27 C ")
	time.Sleep(5 * time.Second)
	_ = lcd.Halt()
}
