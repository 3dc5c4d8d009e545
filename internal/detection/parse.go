package detection

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Parse decodes a detection result. It accepts the provider's
// {"objects": [...]} envelope as well as a bare array of objects. An empty
// payload or null is an empty result.
func Parse(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &Result{}, nil
	}
	if data[0] == '[' {
		objects, err := ParseObjects(data)
		if err != nil {
			return nil, err
		}
		return &Result{Objects: objects}, nil
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "decoding detection result")
	}
	return &r, nil
}

// ParseObjects decodes a JSON array of objects.
func ParseObjects(data []byte) ([]Object, error) {
	var objects []Object
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, errors.Wrap(err, "decoding detection objects")
	}
	return objects, nil
}

// Len returns the number of objects in r; a nil result has none.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Objects)
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}
