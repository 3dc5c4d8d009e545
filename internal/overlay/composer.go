// Package overlay composes the annotated view of a detection result: boxes
// and labels, mask tints, pose and hand skeletons, and captions, each object
// in its own palette colour.
//
// Rendering is best effort. Every stage of every object runs in isolation,
// so a bad mask or keypoint payload costs only that stage. What happened to
// each stage is returned in a Report rather than as an error.
package overlay

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"

	"github.com/tkzzzzzz6/dino-x/internal/applog"
	"github.com/tkzzzzzz6/dino-x/internal/detection"
	"github.com/tkzzzzzz6/dino-x/internal/keypoints"
	"github.com/tkzzzzzz6/dino-x/internal/render"
	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

const (
	// CaptionOffset is how far above the box a caption baseline sits.
	CaptionOffset = 10
	// Captions of objects without a box are stacked from (10, 10) down.
	CaptionLeft  = 10
	CaptionTop   = 10
	CaptionPitch = 20
)

// Composer draws detection results. The zero value is not usable; create
// one with NewComposer. A Composer holds no per-frame state and may be
// reused.
type Composer struct {
	Palette   render.Palette
	Font      render.Font
	MaskAlpha float64
	Decoder   *rle.Decoder

	// Observe, when set, is called with every stage result.
	Observe func(StageResult)

	log logs.Log
}

// NewComposer returns a Composer with the default palette, font and mask
// decoder. log may be nil.
func NewComposer(log logs.Log) *Composer {
	return &Composer{
		Palette:   render.DefaultPalette,
		Font:      render.DefaultFont(),
		MaskAlpha: render.MaskAlpha,
		Decoder:   rle.NewDecoder(),
		log:       applog.NewPrefix(log, "[overlay]"),
	}
}

// frame is the working state of one Visualize call.
type frame struct {
	img    *image.RGBA
	canvas *render.Canvas
}

func (f *frame) replace(img *image.RGBA, font render.Font) {
	f.img = img
	f.canvas = render.NewCanvasWithFont(img, font)
}

// Visualize draws objects onto a copy of img. The input is never modified.
// With no objects the copy is pixel-identical to img.
//
// Object i is drawn in Palette.At(i). For each object the stages run in
// order: box and label, mask, pose skeleton, hand skeleton, caption.
func (c *Composer) Visualize(img image.Image, objects []detection.Object, opts Options) (*image.RGBA, Report) {
	f := &frame{}
	f.replace(render.Copy(img), c.Font)
	report := Report{Objects: len(objects), Stages: make([]StageResult, 0, len(objects)*len(Stages))}

	for i := range objects {
		obj := &objects[i]
		col := c.Palette.At(i)
		for _, stage := range Stages {
			res := c.run(f, i, obj, stage, col, opts)
			report.Stages = append(report.Stages, res)
			if c.Observe != nil {
				c.Observe(res)
			}
		}
	}
	c.log.Debugf("drew %d objects: %d stages drawn, %d skipped, %d failed",
		len(objects), report.Count(render.Drawn), report.Count(render.Skipped), report.Count(render.Failed))
	return f.img, report
}

// run executes one stage and converts panics into a Failed result.
func (c *Composer) run(f *frame, i int, obj *detection.Object, stage Stage, col color.RGBA, opts Options) (res StageResult) {
	res = StageResult{Object: i, Stage: stage}
	defer func() {
		if p := recover(); p != nil {
			res.Status = render.Failed
			res.Reason = fmt.Sprintf("panic: %v", p)
		}
		if res.Status == render.Failed {
			c.log.Warnf("object %d (%s) %s stage failed: %s", i, obj.CategoryOr(detection.RenderCategory), stage, res.Reason)
		}
	}()

	if !opts.enabled(stage) {
		res.Status, res.Reason = render.Skipped, "disabled"
		return res
	}

	var err error
	switch stage {
	case StageBBox:
		res.Status, err = c.drawBBox(f, obj, col)
	case StageMask:
		res.Status, err = c.drawMask(f, obj, col)
	case StagePose:
		res.Status, err = c.drawSkeleton(f, obj.PoseKeypoints, keypoints.Body, col)
	case StageHand:
		res.Status, err = c.drawSkeleton(f, obj.HandKeypoints, keypoints.Hand, col)
	case StageCaption:
		res.Status, err = c.drawCaption(f, i, obj, col)
	}
	if err != nil {
		res.Reason = err.Error()
	}
	return res
}

var (
	errNoBBox    = errors.New("no bbox")
	errNoMask    = errors.New("no mask")
	errNoCaption = errors.New("no caption")
)

func (c *Composer) drawBBox(f *frame, obj *detection.Object, col color.RGBA) (render.Status, error) {
	if obj.BBox == nil {
		if err := obj.BBoxErr(); err != nil {
			return render.Failed, err
		}
		return render.Skipped, errNoBBox
	}
	b := obj.BBox
	r := f.canvas.Box(b.X1, b.Y1, b.X2, b.Y2, col)
	f.canvas.Label(r.Min.X, r.Min.Y, obj.Label(), col)
	return render.Drawn, nil
}

func (c *Composer) drawMask(f *frame, obj *detection.Object, col color.RGBA) (render.Status, error) {
	if obj.Mask == nil {
		return render.Skipped, errNoMask
	}
	m, err := c.Decoder.Decode(obj.Mask, f.canvas.Height(), f.canvas.Width())
	if err != nil {
		return render.Failed, errors.Wrap(err, "decoding mask")
	}
	f.canvas.BlendMask(m, col, c.MaskAlpha)
	return render.Drawn, nil
}

func (c *Composer) drawSkeleton(f *frame, raw json.RawMessage, topo keypoints.Topology, col color.RGBA) (render.Status, error) {
	if len(raw) == 0 {
		return render.Skipped, errors.Errorf("no %s keypoints", topo.Name)
	}
	out, outcome := render.DrawKeypoints(f.img, raw, topo, col)
	if outcome.Status == render.Drawn {
		f.replace(out, c.Font)
	}
	return outcome.Status, outcome.Err
}

func (c *Composer) drawCaption(f *frame, i int, obj *detection.Object, col color.RGBA) (render.Status, error) {
	if obj.Caption == "" {
		return render.Skipped, errNoCaption
	}
	x, y := CaptionLeft, CaptionTop+CaptionPitch*i
	if b := obj.BBox; b != nil {
		r := f.canvas.Clamp(b.X1, b.Y1, b.X2, b.Y2)
		x, y = r.Min.X, r.Min.Y-CaptionOffset
	}
	f.canvas.Text(x, y, obj.Caption, col)
	return render.Drawn, nil
}
