package render

import (
	"encoding/json"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"

	"github.com/tkzzzzzz6/dino-x/internal/keypoints"
)

// Status is how a drawing step ended.
type Status int

const (
	Skipped Status = iota
	Drawn
	Failed
)

func (s Status) String() string {
	switch s {
	case Drawn:
		return "drawn"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome describes one skeleton draw.
type Outcome struct {
	Status Status
	Points int // markers drawn
	Bones  int // bones drawn
	Err    error
}

// DrawKeypoints draws the skeleton described by raw onto a copy of img.
// The input image is never modified. A payload that cannot be read, or any
// failure while drawing, yields an untouched copy and a Failed outcome. An
// empty payload is Skipped.
func DrawKeypoints(img image.Image, raw json.RawMessage, topo keypoints.Topology, col color.Color) (out *image.RGBA, outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Copy(img)
			outcome = Outcome{Status: Failed, Err: errors.Errorf("drawing %s keypoints: %v", topo.Name, p)}
		}
	}()

	points, err := keypoints.Normalize(raw)
	if err != nil {
		status := Failed
		if errors.Is(err, keypoints.ErrEmpty) {
			status = Skipped
		}
		return Copy(img), Outcome{Status: status, Err: err}
	}
	out = Copy(img)
	drawnPoints, drawnBones := NewCanvas(out).Skeleton(points, topo, col)
	return out, Outcome{Status: Drawn, Points: drawnPoints, Bones: drawnBones}
}

// Skeleton draws a marker for every visible keypoint, then a bone for every
// topology edge whose endpoints both exist and are visible. Edges that refer
// past the end of points are skipped.
func (c *Canvas) Skeleton(points []keypoints.Keypoint, topo keypoints.Topology, col color.Color) (drawnPoints, drawnBones int) {
	for _, kp := range points {
		if !kp.Visible() {
			continue
		}
		x, y := pixel(kp)
		c.Dot(x, y, MarkerRadius, col)
		drawnPoints++
	}
	for _, b := range topo.Bones {
		if b.From < 0 || b.To < 0 || b.From >= len(points) || b.To >= len(points) {
			continue
		}
		from, to := points[b.From], points[b.To]
		if !from.Visible() || !to.Visible() {
			continue
		}
		x1, y1 := pixel(from)
		x2, y2 := pixel(to)
		c.Line(x1, y1, x2, y2, BoneThickness, col)
		drawnBones++
	}
	return drawnPoints, drawnBones
}

// offCanvas is far enough outside any image that a marker there draws nothing.
const offCanvas = 1 << 20

func pixel(kp keypoints.Keypoint) (int, int) {
	return coord(kp.X), coord(kp.Y)
}

func coord(v float64) int {
	return int(math.Max(-offCanvas, math.Min(offCanvas, math.Round(v))))
}
