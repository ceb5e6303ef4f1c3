// Package export renders chemoscope results into figures and tables:
// a PCA biplot, per-compound boxplots (SVG or PNG), and the ranked
// contributor table (JSON or markdown). Rendering never mutates the
// underlying results; writing bytes to disk is the caller's concern except
// for the path-based Save helpers.
package export

import (
	"fmt"
	"image/color"
)

// Shared figure colors.
var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorAxis     = color.RGBA{0xb0, 0xb8, 0xc0, 0xff}
	colorArrow    = color.RGBA{0x37, 0x47, 0x4f, 0xff}
	colorBox      = color.RGBA{0x90, 0xa4, 0xae, 0xff}
)

// conditionPalette colors sample groups. Conditions beyond the palette wrap
// around.
var conditionPalette = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff}, // blue
	{0xd6, 0x27, 0x28, 0xff}, // red
	{0x2c, 0xa0, 0x2c, 0xff}, // green
	{0x94, 0x67, 0xbd, 0xff}, // purple
	{0xff, 0x7f, 0x0e, 0xff}, // orange
	{0x8c, 0x56, 0x4b, 0xff}, // brown
	{0xe3, 0x77, 0xc2, 0xff}, // pink
	{0x17, 0xbe, 0xcf, 0xff}, // cyan
}

func conditionColor(i int) color.RGBA {
	return conditionPalette[i%len(conditionPalette)]
}

// withAlpha returns the color with its alpha channel replaced.
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
