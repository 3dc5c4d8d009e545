package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// TableauColors is the ten colour "tab10" qualitative palette, in order.
var TableauColors = []string{
	"#1f77b4", // blue
	"#ff7f0e", // orange
	"#2ca02c", // green
	"#d62728", // red
	"#9467bd", // purple
	"#8c564b", // brown
	"#e377c2", // pink
	"#7f7f7f", // gray
	"#bcbd22", // olive
	"#17becf", // cyan
}

var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Palette assigns colours to objects by index.
type Palette []color.RGBA

// DefaultPalette is built from TableauColors.
var DefaultPalette = MustPalette(TableauColors...)

// NewPalette parses hex colours ("#rrggbb" or "#rgb") into a palette.
func NewPalette(hexes ...string) (Palette, error) {
	if len(hexes) == 0 {
		return nil, errors.New("palette needs at least one colour")
	}
	p := make(Palette, len(hexes))
	for i, h := range hexes {
		// colorful.Hex scans leniently and accepts "#12345".
		if len(h) != 7 && len(h) != 4 {
			return nil, errors.Errorf("palette colour %d: %q is not #rrggbb or #rgb", i, h)
		}
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Wrapf(err, "palette colour %d", i)
		}
		r, g, b := c.RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p, nil
}

// MustPalette is NewPalette for package-level tables; it panics on bad input.
func MustPalette(hexes ...string) Palette {
	p, err := NewPalette(hexes...)
	if err != nil {
		panic(err)
	}
	return p
}

// At returns the colour for object index i, cycling through the palette.
func (p Palette) At(i int) color.RGBA {
	if len(p) == 0 {
		return White
	}
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// Hex formats a palette entry as "#rrggbb".
func Hex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
