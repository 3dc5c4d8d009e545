package render

import (
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Font defines how label and caption text is rendered.
type Font struct {
	Face  font.Face
	Color color.RGBA
	// Space between the text baseline and the bottom of its label box
	BottomPad int
}

// DefaultFont is a 7x13 bitmap face with white text.
func DefaultFont() Font {
	return Font{
		Face:      basicfont.Face7x13,
		Color:     White,
		BottomPad: 5,
	}
}

// Measure returns the advance width of text and the ascent of the face.
func (f Font) Measure(text string) (width, ascent int) {
	return font.MeasureString(f.Face, text).Ceil(), f.Face.Metrics().Ascent.Ceil()
}
