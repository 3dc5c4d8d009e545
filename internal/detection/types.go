package detection

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

const (
	// RenderCategory names an object with no category in drawn labels.
	RenderCategory = "object"

	// SummaryCategory and SummaryScore fill in missing fields in summaries
	// and analytics.
	SummaryCategory = "unknown"
	SummaryScore    = 0.0
)

// ErrMalformedBBox is reported when a bbox is not four finite numbers.
var ErrMalformedBBox = errors.New("bbox must be [x1, y1, x2, y2]")

// Result is one response from the detection provider.
type Result struct {
	Objects []Object `json:"objects"`
}

// Object is a single detected object. Every field is optional.
type Object struct {
	BBox          *BBox           `json:"bbox,omitempty"`
	Category      string          `json:"category,omitempty"`
	Score         *float64        `json:"score,omitempty"`
	Mask          *rle.RLE        `json:"mask,omitempty"`
	PoseKeypoints json.RawMessage `json:"pose_keypoints,omitempty"`
	HandKeypoints json.RawMessage `json:"hand_keypoints,omitempty"`
	Caption       string          `json:"caption,omitempty"`

	bboxErr error
}

// UnmarshalJSON decodes an object. A malformed field never fails the object:
// a bad bbox leaves BBox nil with the problem available from BBoxErr, and a
// wrong-typed category, score or caption reads as absent.
func (o *Object) UnmarshalJSON(data []byte) error {
	type plain Object
	var aux struct {
		plain
		BBox     json.RawMessage `json:"bbox"`
		Category json.RawMessage `json:"category"`
		Score    json.RawMessage `json:"score"`
		Caption  json.RawMessage `json:"caption"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Object(aux.plain)
	o.BBox, o.bboxErr = parseBBox(aux.BBox)
	o.Category = optionalString(aux.Category)
	o.Caption = optionalString(aux.Caption)
	o.Score = optionalNumber(aux.Score)
	return nil
}

// BBoxErr returns why the bbox sent with the object could not be read.
func (o *Object) BBoxErr() error {
	return o.bboxErr
}

// CategoryOr returns the category, or def when it is empty.
func (o *Object) CategoryOr(def string) string {
	if o.Category == "" {
		return def
	}
	return o.Category
}

// ScoreOr returns the score, or def when it is absent.
func (o *Object) ScoreOr(def float64) float64 {
	if o.Score == nil {
		return def
	}
	return *o.Score
}

// Label is the text drawn above a bounding box: "cat 0.90", or just the
// category when there is no score.
func (o *Object) Label() string {
	cat := o.CategoryOr(RenderCategory)
	if o.Score == nil {
		return cat
	}
	return cat + " " + formatScore(*o.Score)
}

// BBox is a box in image pixel coordinates. The corners are not required to
// be ordered or inside the image.
type BBox struct {
	X1, Y1, X2, Y2 float64
}

func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

func (b *BBox) UnmarshalJSON(data []byte) error {
	parsed, err := parseBBox(data)
	if err != nil {
		return err
	}
	if parsed != nil {
		*b = *parsed
	}
	return nil
}

// Ordered returns the box with x1 <= x2 and y1 <= y2.
func (b BBox) Ordered() BBox {
	return BBox{
		X1: math.Min(b.X1, b.X2), Y1: math.Min(b.Y1, b.Y2),
		X2: math.Max(b.X1, b.X2), Y2: math.Max(b.Y1, b.Y2),
	}
}

func (b BBox) Width() float64  { o := b.Ordered(); return o.X2 - o.X1 }
func (b BBox) Height() float64 { o := b.Ordered(); return o.Y2 - o.Y1 }

func parseBBox(raw json.RawMessage) (*BBox, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(ErrMalformedBBox, err.Error())
	}
	if len(v) != 4 {
		return nil, errors.Wrapf(ErrMalformedBBox, "got %d values", len(v))
	}
	return &BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

func optionalString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func optionalNumber(raw json.RawMessage) *float64 {
	var f *float64
	if json.Unmarshal(raw, &f) != nil {
		return nil
	}
	return f
}
