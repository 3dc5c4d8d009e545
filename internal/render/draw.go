// Package render draws detection annotations onto RGBA images: boxes with
// labels, mask tints, keypoint skeletons and captions.
//
// Drawing happens on a Canvas that wraps a caller-owned *image.RGBA. Use
// Copy first when the source image must stay untouched.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/fogleman/gg"
)

const (
	BoxThickness  = 2
	BoneThickness = 2
	MarkerRadius  = 5
	MaskAlpha     = 0.5
)

// Copy returns an RGBA copy of img with its origin moved to (0, 0).
func Copy(img image.Image) *image.RGBA {
	out := clone.AsRGBA(img)
	if b := out.Bounds(); b.Min != (image.Point{}) {
		moved := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(moved, moved.Bounds(), out, b.Min, draw.Src)
		out = moved
	}
	return out
}

// Canvas draws onto an RGBA image in place.
type Canvas struct {
	img  *image.RGBA
	dc   *gg.Context
	font Font
}

// NewCanvas wraps img, which must have its origin at (0, 0).
func NewCanvas(img *image.RGBA) *Canvas {
	return NewCanvasWithFont(img, DefaultFont())
}

// NewCanvasWithFont wraps img and draws text with f.
func NewCanvasWithFont(img *image.RGBA, f Font) *Canvas {
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(f.Face)
	return &Canvas{img: img, dc: dc, font: f}
}

// Image returns the image being drawn on.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Width and Height are the image dimensions in pixels.
func (c *Canvas) Width() int  { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Clamp orders the corners of a box and clamps them to the image. The
// returned rectangle is inclusive of its Max corner, matching how boxes are
// reported by detectors.
func (c *Canvas) Clamp(x1, y1, x2, y2 float64) image.Rectangle {
	ax, bx := clampCoord(x1, c.Width()-1), clampCoord(x2, c.Width()-1)
	ay, by := clampCoord(y1, c.Height()-1), clampCoord(y2, c.Height()-1)
	if ax > bx {
		ax, bx = bx, ax
	}
	if ay > by {
		ay, by = by, ay
	}
	return image.Rectangle{Min: image.Pt(ax, ay), Max: image.Pt(bx, by)}
}

// Box strokes a rectangle outline and returns the clamped box it drew.
func (c *Canvas) Box(x1, y1, x2, y2 float64, col color.Color) image.Rectangle {
	r := c.Clamp(x1, y1, x2, y2)
	c.dc.SetColor(col)
	c.dc.SetLineWidth(BoxThickness)
	c.dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	c.dc.Stroke()
	return r
}

// Label draws text on a filled background whose bottom-left corner sits at
// (x, y). When that would leave the top of the image the label moves down
// until it fits.
func (c *Canvas) Label(x, y int, text string, bg color.Color) image.Rectangle {
	w, h := c.font.Measure(text)
	top := y - h - c.font.BottomPad
	if top < 0 {
		top = 0
	}
	bottom := top + h + c.font.BottomPad
	c.dc.SetColor(bg)
	c.dc.DrawRectangle(float64(x), float64(top), float64(w), float64(bottom-top))
	c.dc.Fill()
	c.dc.SetColor(c.font.Color)
	c.dc.DrawString(text, float64(x), float64(bottom-c.font.BottomPad))
	return image.Rect(x, top, x+w, bottom)
}

// Text draws text with its baseline at y. A baseline too close to the top is
// pushed down so the glyphs stay visible.
func (c *Canvas) Text(x, y int, text string, col color.Color) {
	_, ascent := c.font.Measure(text)
	if y < ascent {
		y = ascent
	}
	c.dc.SetColor(col)
	c.dc.DrawString(text, float64(x), float64(y))
}

// Dot fills a circle centred on pixel (x, y).
func (c *Canvas) Dot(x, y int, radius float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(float64(x)+0.5, float64(y)+0.5, radius)
	c.dc.Fill()
}

// Line joins the centres of pixels (x1, y1) and (x2, y2).
func (c *Canvas) Line(x1, y1, x2, y2 int, width float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1)+0.5, float64(y1)+0.5, float64(x2)+0.5, float64(y2)+0.5)
	c.dc.Stroke()
}

// clampCoord truncates v to a pixel index in [0, hi], clamping before the
// conversion so huge values cannot overflow.
func clampCoord(v float64, hi int) int {
	return int(math.Max(0, math.Min(v, float64(hi))))
}
