package rle

import (
	"github.com/disintegration/imaging"
)

// Encode run-length encodes m as explicit row-major counts, the form Decode
// reads from an integer array.
func Encode(m *Mask) *RLE {
	return &RLE{
		Counts: RunCounts(runsOf(m, RowMajor)...),
		Size:   []int{m.Height, m.Width},
	}
}

// EncodeCompressed encodes m as a COCO compressed counts string.
func EncodeCompressed(m *Mask) *RLE {
	return &RLE{
		Counts: StringCounts(formatCOCOCounts(runsOf(m, ColumnMajor))),
		Size:   []int{m.Height, m.Width},
	}
}

// runsOf walks m in the given order. The first run is background and may be
// zero when the first pixel is foreground.
func runsOf(m *Mask, order Order) []uint32 {
	total := m.Height * m.Width
	runs := make([]uint32, 0, 8)
	var cur uint8
	var n uint32
	for i := 0; i < total; i++ {
		idx := i
		if order == ColumnMajor {
			idx = (i%m.Height)*m.Width + i/m.Height
		}
		v := m.Pix[idx]
		if v != 0 {
			v = 1
		}
		if v != cur {
			runs = append(runs, n)
			n = 0
			cur = v
		}
		n++
	}
	return append(runs, n)
}

// Resize scales m to height x width with nearest-neighbour sampling, so the
// result stays strictly binary.
func Resize(m *Mask, height, width int) *Mask {
	dst := imaging.Resize(m.Image(), width, height, imaging.NearestNeighbor)
	out := NewMask(height, width)
	b := dst.Bounds()
	for y := 0; y < height && y < b.Dy(); y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < width && x < b.Dx(); x++ {
			if row[x*4] >= 128 {
				out.Pix[y*width+x] = 1
			}
		}
	}
	return out
}
