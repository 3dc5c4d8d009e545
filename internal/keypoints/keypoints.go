// Package keypoints converts the keypoint payloads returned by detection
// providers into one canonical form.
//
// Providers send keypoints in one of three layouts:
//
//	flat:    [x0, y0, v0, s0, x1, y1, v1, s1, ...]
//	nested:  [[x0, y0, v0, s0], [x1, y1, v1, s1], ...]
//	mapping: [{"x": x0, "y": y0, "visible": v0, "score": s0}, ...]
//
// Inspect decides which layout applies by looking at the first element only,
// and Normalize converts the payload to []Keypoint. Everything downstream
// works on the canonical slice.
package keypoints

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// MinConfidence is the exclusive lower bound on confidence for a keypoint to
// be drawn.
const MinConfidence = 0.1

// Keypoint is a single canonical keypoint.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
	Confidence float64 `json:"confidence"`
}

// Visible reports whether the keypoint passes the draw gate: visibility above
// zero and confidence strictly above MinConfidence.
func (k Keypoint) Visible() bool {
	return k.Visibility > 0 && k.Confidence > MinConfidence
}

// Shape identifies the layout of a raw keypoint payload.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeFlat
	ShapeNested
	ShapeMapping
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	case ShapeMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

var (
	ErrEmpty           = errors.New("no keypoints")
	ErrUnknownShape    = errors.New("unrecognized keypoint layout")
	ErrMalformedPoints = errors.New("malformed keypoints")
)

// Inspect classifies raw by the JSON kind of its first element.
func Inspect(raw json.RawMessage) Shape {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ShapeEmpty
	}
	if raw[0] != '[' {
		return ShapeUnknown
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ShapeUnknown
	}
	if len(items) == 0 {
		return ShapeEmpty
	}
	first := bytes.TrimSpace(items[0])
	if len(first) == 0 {
		return ShapeUnknown
	}
	switch c := first[0]; {
	case c == '[':
		return ShapeNested
	case c == '{':
		return ShapeMapping
	case c == '-' || (c >= '0' && c <= '9'):
		return ShapeFlat
	default:
		return ShapeUnknown
	}
}

// Normalize converts raw to canonical keypoints. The returned slice is never
// nil. A non-nil error is a diagnostic for the caller to report: the slice is
// then empty, and rendering simply draws nothing.
func Normalize(raw json.RawMessage) ([]Keypoint, error) {
	shape := Inspect(raw)
	var (
		points []Keypoint
		err    error
	)
	switch shape {
	case ShapeEmpty:
		err = ErrEmpty
	case ShapeFlat:
		var values []float64
		if err = json.Unmarshal(raw, &values); err == nil {
			points = FromFlat(values)
		}
	case ShapeNested:
		var rows [][]float64
		if err = json.Unmarshal(raw, &rows); err == nil {
			points, err = FromNested(rows)
		}
	case ShapeMapping:
		var items []map[string]json.RawMessage
		if err = json.Unmarshal(raw, &items); err == nil {
			points, err = fromMappings(items)
		}
	default:
		err = ErrUnknownShape
	}
	if err != nil {
		if shape != ShapeEmpty && shape != ShapeUnknown {
			err = errors.Wrapf(ErrMalformedPoints, "%s layout: %v", shape, err)
		}
		return []Keypoint{}, err
	}
	if points == nil {
		points = []Keypoint{}
	}
	return points, nil
}

// FromFlat groups values in fours. A trailing group of fewer than four values
// is dropped.
func FromFlat(values []float64) []Keypoint {
	out := make([]Keypoint, 0, len(values)/4)
	for i := 0; i+3 < len(values); i += 4 {
		out = append(out, Keypoint{X: values[i], Y: values[i+1], Visibility: values[i+2], Confidence: values[i+3]})
	}
	return out
}

// FromNested reads one keypoint per row. Every row needs at least four values;
// extras are ignored.
func FromNested(rows [][]float64) ([]Keypoint, error) {
	out := make([]Keypoint, 0, len(rows))
	for i, r := range rows {
		if len(r) < 4 {
			return nil, errors.Errorf("point %d has %d values, need 4", i, len(r))
		}
		out = append(out, Keypoint{X: r[0], Y: r[1], Visibility: r[2], Confidence: r[3]})
	}
	return out, nil
}

// Mapping is the keyed form of a keypoint. Missing keys read as zero.
type Mapping struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible float64 `json:"visible"`
	Score   float64 `json:"score"`
}

// FromMappings converts keyed points.
func FromMappings(items []Mapping) []Keypoint {
	out := make([]Keypoint, len(items))
	for i, m := range items {
		out[i] = Keypoint{X: m.X, Y: m.Y, Visibility: m.Visible, Confidence: m.Score}
	}
	return out
}

func fromMappings(items []map[string]json.RawMessage) ([]Keypoint, error) {
	out := make([]Mapping, len(items))
	for i, item := range items {
		var err error
		m := &out[i]
		for key, dst := range map[string]*float64{"x": &m.X, "y": &m.Y, "visible": &m.Visible, "score": &m.Score} {
			if *dst, err = number(item[key]); err != nil {
				return nil, errors.Wrapf(err, "point %d key %q", i, key)
			}
		}
	}
	return FromMappings(out), nil
}

// number reads a JSON number. Absent and null values are zero; booleans are 1
// or 0.
func number(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("false")):
		return 0, nil
	case bytes.Equal(raw, []byte("true")):
		return 1, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errors.Errorf("not a number: %.20s", raw)
	}
	return f, nil
}
