// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdtherm holds the drivers of a small temperature monitor: an LM35
// sensor read through an ADC101C converter, shown on an HD44780 compatible
// 1602 LCD behind an I²C backpack.
//
// The packages build on periph.io/x/conn and are usable on their own; the
// assembled monitor lives in cmd/lcdtherm.
package lcdtherm
