// Package tray renders the notification area icon and serves its menu.
package tray

import (
	"bytes"
	"image"
	"image/color"

	ico "github.com/sergeymakinen/go-ico"

	"github.com/hior/keyborder/internal/layouts"
)

const (
	iconSize    = 64
	outlineWide = 2
)

// outlineColor frames every badge regardless of the fill.
var outlineColor = color.RGBA{R: 0x2C, G: 0x3E, B: 0x50, A: 0xFF}

// Icon renders a solid square badge in the layout color with a dark
// outline, encoded as a Windows icon.
func Icon(c layouts.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	fill := color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if x < outlineWide || y < outlineWide || x >= iconSize-outlineWide || y >= iconSize-outlineWide {
				img.SetRGBA(x, y, outlineColor)
			} else {
				img.SetRGBA(x, y, fill)
			}
		}
	}

	var buf bytes.Buffer
	if err := ico.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
