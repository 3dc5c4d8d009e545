package rle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxPixels bounds the mask size accepted from untrusted input.
const MaxPixels = 1 << 26

var (
	ErrNoMask            = errors.New("no mask")
	ErrMalformedMask     = errors.New("mask must be an RLE object")
	ErrMissingSize       = errors.New("mask size missing")
	ErrMalformedSize     = errors.New("mask size must be [height, width] with positive values")
	ErrEmptyCounts       = errors.New("mask counts missing")
	ErrMalformedCounts   = errors.New("malformed mask counts")
	ErrUnsupportedCounts = errors.New("unsupported counts encoding")
)

// Order is the pixel order a run sequence walks.
type Order int

const (
	RowMajor Order = iota
	ColumnMajor
)

func (o Order) String() string {
	if o == ColumnMajor {
		return "column-major"
	}
	return "row-major"
}

// Runs is a decoded run-length sequence, background first.
type Runs struct {
	Counts []uint32
	Order  Order
}

// Strategy turns a counts string into runs for a mask of the given size.
type Strategy interface {
	Name() string
	Runs(counts string, height, width int) (Runs, error)
}

// DefaultStrategies is the decode chain used by Decode. The COCO compressed
// string comes first; plain integer lists are only tried when it fails.
var DefaultStrategies = []Strategy{COCOString{}, WhitespaceInts{}}

// Decoder runs string counts through an ordered list of strategies, first
// success wins.
type Decoder struct {
	Strategies []Strategy
}

// NewDecoder builds a decoder. With no strategies it uses DefaultStrategies.
func NewDecoder(strategies ...Strategy) *Decoder {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Decoder{Strategies: strategies}
}

var defaultDecoder = NewDecoder()

// Decode decodes r with the default strategy chain. See Decoder.Decode.
func Decode(r *RLE, targetHeight, targetWidth int) (*Mask, error) {
	return defaultDecoder.Decode(r, targetHeight, targetWidth)
}

// Decode expands r into a dense mask and resizes it (nearest neighbour) to
// targetHeight x targetWidth when that differs from the encoded size. A
// non-positive target keeps the encoded size.
//
// Every failure returns a nil mask and an error describing it; Decode does not
// panic on malformed input.
func (d *Decoder) Decode(r *RLE, targetHeight, targetWidth int) (mask *Mask, err error) {
	defer func() {
		if p := recover(); p != nil {
			mask = nil
			err = errors.Errorf("mask decode panic: %v", p)
		}
	}()

	if r == nil {
		return nil, ErrNoMask
	}
	if r.err != nil {
		return nil, errors.Wrap(ErrMalformedMask, r.err.Error())
	}
	if r.Counts.err != nil {
		return nil, errors.Wrap(ErrMalformedCounts, r.Counts.err.Error())
	}
	if r.Counts.Empty() {
		return nil, ErrEmptyCounts
	}
	height, width, err := r.Dims()
	if err != nil {
		return nil, err
	}

	runs := Runs{Counts: r.Counts.Runs, Order: RowMajor}
	if r.Counts.IsString() {
		runs, err = d.stringRuns(r.Counts.Encoded, height, width)
		if err != nil {
			return nil, err
		}
	}

	mask = Fill(runs, height, width)
	if targetHeight > 0 && targetWidth > 0 && (targetHeight != height || targetWidth != width) {
		if int64(targetHeight)*int64(targetWidth) > MaxPixels {
			return nil, errors.Errorf("target %dx%d exceeds %d pixels", targetHeight, targetWidth, MaxPixels)
		}
		mask = Resize(mask, targetHeight, targetWidth)
	}
	return mask, nil
}

func (d *Decoder) stringRuns(counts string, height, width int) (Runs, error) {
	var reasons []string
	for _, s := range d.Strategies {
		runs, err := s.Runs(counts, height, width)
		if err == nil {
			return runs, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", s.Name(), err))
	}
	return Runs{}, errors.Wrap(ErrUnsupportedCounts, strings.Join(reasons, "; "))
}

// Fill paints runs onto a height x width mask, starting with background and
// alternating. Runs that overshoot the mask are clipped.
func Fill(runs Runs, height, width int) *Mask {
	m := NewMask(height, width)
	total := height * width
	pos := 0
	var val uint8
	for _, n := range runs.Counts {
		if pos >= total {
			break
		}
		end := pos + int(n)
		if end > total {
			end = total
		}
		if val == 1 {
			for i := pos; i < end; i++ {
				idx := i
				if runs.Order == ColumnMajor {
					idx = (i%height)*width + i/height
				}
				m.Pix[idx] = 1
			}
		}
		pos = end
		val ^= 1
	}
	return m
}

// WhitespaceInts reads counts written as whitespace separated integers,
// e.g. "12 3 40 7", in row-major order.
type WhitespaceInts struct{}

func (WhitespaceInts) Name() string { return "whitespace-ints" }

func (WhitespaceInts) Runs(counts string, height, width int) (Runs, error) {
	fields := strings.Fields(counts)
	if len(fields) == 0 {
		return Runs{}, ErrEmptyCounts
	}
	out := make([]uint32, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return Runs{}, errors.Errorf("count %q is not a non-negative integer", f)
		}
		out[i] = uint32(n)
	}
	return Runs{Counts: out, Order: RowMajor}, nil
}
