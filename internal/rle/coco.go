package rle

import (
	"github.com/pkg/errors"
)

// COCOString decodes the compressed counts string used by the COCO mask API.
//
// Each count is written as little-endian groups of 5 bits, one printable
// character per group (value + 48). Bit 0x20 marks a continuation and bit 0x10
// of the last group is the sign. From the third count on, the value is stored
// as a delta against the count two positions back. Runs walk the mask in
// column-major order and must cover it exactly.
type COCOString struct{}

func (COCOString) Name() string { return "coco" }

func (COCOString) Runs(counts string, height, width int) (Runs, error) {
	raw, err := parseCOCOCounts(counts)
	if err != nil {
		return Runs{}, err
	}
	out := make([]uint32, len(raw))
	var sum int64
	for i, n := range raw {
		if n < 0 || n > int64(^uint32(0)) {
			return Runs{}, errors.Errorf("count %d out of range: %d", i, n)
		}
		out[i] = uint32(n)
		sum += n
	}
	if sum != int64(height)*int64(width) {
		return Runs{}, errors.Errorf("counts cover %d pixels, mask has %d", sum, height*width)
	}
	return Runs{Counts: out, Order: ColumnMajor}, nil
}

func parseCOCOCounts(s string) ([]int64, error) {
	counts := make([]int64, 0, len(s)/2)
	p := 0
	for p < len(s) {
		var x int64
		k := 0
		more := true
		for more {
			if p >= len(s) {
				return nil, errors.New("truncated count")
			}
			if k >= 12 {
				return nil, errors.Errorf("count at offset %d too long", p)
			}
			c := int64(s[p]) - 48
			if c < 0 || c > 63 {
				return nil, errors.Errorf("invalid character %q at offset %d", s[p], p)
			}
			x |= (c & 0x1f) << (5 * k)
			more = c&0x20 != 0
			p++
			k++
			if !more && c&0x10 != 0 {
				x |= -1 << (5 * k)
			}
		}
		if len(counts) > 2 {
			x += counts[len(counts)-2]
		}
		counts = append(counts, x)
	}
	return counts, nil
}

func formatCOCOCounts(counts []uint32) string {
	buf := make([]byte, 0, len(counts)*2)
	for i := range counts {
		x := int64(counts[i])
		if i > 2 {
			x -= int64(counts[i-2])
		}
		more := true
		for more {
			c := x & 0x1f
			x >>= 5
			if c&0x10 != 0 {
				more = x != -1
			} else {
				more = x != 0
			}
			if more {
				c |= 0x20
			}
			buf = append(buf, byte(c+48))
		}
	}
	return string(buf)
}
