package render

import (
	"image/color"

	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

// BlendMask tints the pixels where m is set:
//
//	out = orig*(1-alpha) + col*alpha
//
// Pixels outside the mask are left exactly as they were. The mask is expected
// to match the image size; any excess on either side is ignored. It returns
// the number of pixels tinted.
func (c *Canvas) BlendMask(m *rle.Mask, col color.RGBA, alpha float64) int {
	if m == nil {
		return 0
	}
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	w := min(m.Width, c.Width())
	h := min(m.Height, c.Height())
	tint := [3]float64{float64(col.R) * alpha, float64(col.G) * alpha, float64(col.B) * alpha}
	keep := 1 - alpha
	pix := c.img.Pix
	n := 0
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Width:]
		for x := 0; x < w; x++ {
			if row[x] == 0 {
				continue
			}
			i := c.img.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				pix[i+ch] = uint8(float64(pix[i+ch])*keep + tint[ch] + 0.5)
			}
			n++
		}
	}
	return n
}
