package rle

import (
	"bytes"
	"encoding/json"
	"image"

	"github.com/pkg/errors"
)

// RLE is a run-length encoded binary mask in the COCO layout:
//
//	{"counts": "<compressed string>" | [n0, n1, ...], "size": [height, width]}
//
// Unmarshalling never fails, not even when the value is not an object. The
// problem is recorded and reported by Decode instead, so a single bad mask
// cannot reject the whole detection result it arrived in.
type RLE struct {
	Counts Counts `json:"counts"`
	Size   []int  `json:"size"`

	err     error
	sizeErr error
}

// UnmarshalJSON decodes an RLE object, deferring validation to Decode.
func (r *RLE) UnmarshalJSON(data []byte) error {
	*r = RLE{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		r.err = errors.Errorf("expected an object, got %.20s", data)
		return nil
	}
	var aux struct {
		Counts Counts          `json:"counts"`
		Size   json.RawMessage `json:"size"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		r.err = err
		return nil
	}
	r.Counts = aux.Counts
	if len(aux.Size) == 0 || bytes.Equal(bytes.TrimSpace(aux.Size), []byte("null")) {
		return nil
	}
	var size []int
	if err := json.Unmarshal(aux.Size, &size); err != nil {
		r.sizeErr = errors.Wrap(err, "size")
		return nil
	}
	r.Size = size
	return nil
}

// Dims returns the height and width recorded in Size.
func (r *RLE) Dims() (height, width int, err error) {
	if r.sizeErr != nil {
		return 0, 0, errors.Wrap(ErrMalformedSize, r.sizeErr.Error())
	}
	if len(r.Size) == 0 {
		return 0, 0, ErrMissingSize
	}
	if len(r.Size) != 2 || r.Size[0] <= 0 || r.Size[1] <= 0 {
		return 0, 0, errors.Wrapf(ErrMalformedSize, "got %v", r.Size)
	}
	if int64(r.Size[0])*int64(r.Size[1]) > MaxPixels {
		return 0, 0, errors.Wrapf(ErrMalformedSize, "%dx%d exceeds %d pixels", r.Size[0], r.Size[1], MaxPixels)
	}
	return r.Size[0], r.Size[1], nil
}

// Counts holds either a compressed counts string or a list of run lengths.
type Counts struct {
	Runs    []uint32
	Encoded string

	text bool
	err  error
}

// StringCounts wraps a compressed counts string.
func StringCounts(s string) Counts {
	return Counts{Encoded: s, text: true}
}

// RunCounts wraps explicit run lengths.
func RunCounts(runs ...uint32) Counts {
	return Counts{Runs: runs}
}

// IsString reports whether the counts arrived as a string.
func (c Counts) IsString() bool { return c.text }

// Empty reports whether there is nothing to decode.
func (c Counts) Empty() bool {
	if c.text {
		return c.Encoded == ""
	}
	return len(c.Runs) == 0
}

// UnmarshalJSON accepts a string, an array of non-negative integers, or null.
func (c *Counts) UnmarshalJSON(data []byte) error {
	*c = Counts{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			c.err = err
			return nil
		}
		c.Encoded = s
		c.text = true
	case '[':
		var raw []int64
		if err := json.Unmarshal(data, &raw); err != nil {
			c.err = err
			return nil
		}
		runs := make([]uint32, len(raw))
		for i, n := range raw {
			if n < 0 || n > int64(^uint32(0)) {
				c.err = errors.Errorf("run %d out of range: %d", i, n)
				return nil
			}
			runs[i] = uint32(n)
		}
		c.Runs = runs
	default:
		c.err = errors.Errorf("unexpected counts value %.20s", data)
	}
	return nil
}

// MarshalJSON writes the string form when the counts were a string.
func (c Counts) MarshalJSON() ([]byte, error) {
	if c.text {
		return json.Marshal(c.Encoded)
	}
	if c.Runs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Runs)
}

// Mask is a dense binary mask. Pix holds one byte per pixel, 0 or 1, row-major.
type Mask struct {
	Height int
	Width  int
	Pix    []uint8
}

// NewMask allocates an all-background mask.
func NewMask(height, width int) *Mask {
	return &Mask{Height: height, Width: width, Pix: make([]uint8, height*width)}
}

// At returns the mask value at column x, row y. Out-of-range reads return 0.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set writes a mask value; anything non-zero is stored as 1.
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if v != 0 {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Area counts the foreground pixels.
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Equal reports whether two masks have the same size and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Height == o.Height && m.Width == o.Width && bytes.Equal(m.Pix, o.Pix)
}

// Image renders the mask as a gray image, foreground 255.
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.Width]
		for x := range row {
			if m.Pix[y*m.Width+x] != 0 {
				row[x] = 255
			}
		}
	}
	return img
}
