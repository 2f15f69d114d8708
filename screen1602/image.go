// Copyright 2025 Vo Minh Luong. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen1602

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Cell geometry of the rendered panel, in pixels.
const (
	cellWidth  = 13
	cellHeight = 21
	bezel      = 12
)

var (
	faceOnce sync.Once
	lcdFace  font.Face
)

func face() font.Face {
	faceOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			lcdFace = basicfont.Face7x13
			return
		}
		lcdFace = truetype.NewFace(f, &truetype.Options{Size: 15})
	})
	return lcdFace
}

// Image renders a snapshot of the panel. It serves the same development need
// a camera shot of the real module would: checking what the last transmitted
// bytes put on the glass.
func (d *Dev) Image() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.cols*cellWidth + 2*bezel
	h := d.rows*cellHeight + 2*bezel
	dc := gg.NewContext(w, h)
	if d.backlight {
		dc.SetRGB(0.10, 0.35, 0.85)
	} else {
		dc.SetRGB(0.10, 0.12, 0.14)
	}
	dc.Clear()
	dc.SetFontFace(face())
	for row := 1; row <= d.rows; row++ {
		text := d.textLocked(row)
		y := float64(bezel + (row-1)*cellHeight)
		for col := 0; col < d.cols; col++ {
			x := float64(bezel + col*cellWidth)
			dc.SetRGBA(0, 0, 0, 0.12)
			dc.DrawRectangle(x, y, cellWidth-1, cellHeight-1)
			dc.Fill()
			if !d.on {
				continue
			}
			if d.backlight {
				dc.SetRGB(1, 1, 1)
			} else {
				dc.SetRGB(0.45, 0.50, 0.55)
			}
			dc.DrawStringAnchored(string(text[col]), x+cellWidth/2.0, y+cellHeight/2.0, 0.5, 0.5)
		}
	}
	return dc.Image()
}
