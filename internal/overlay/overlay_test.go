package overlay

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tkzzzzzz6/dino-x/internal/detection"
	"github.com/tkzzzzzz6/dino-x/internal/render"
	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

var black = color.RGBA{A: 255}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)
	return img
}

func score(v float64) *float64 { return &v }

func catAndDog() []detection.Object {
	return []detection.Object{
		{BBox: &detection.BBox{X1: 10, Y1: 10, X2: 50, Y2: 50}, Category: "cat", Score: score(0.9)},
		{BBox: &detection.BBox{X1: 60, Y1: 60, X2: 90, Y2: 90}, Category: "dog", Score: score(0.4)},
	}
}

func tinted(c color.RGBA) color.RGBA {
	half := func(v uint8) uint8 { return uint8(float64(v)*render.MaskAlpha + 0.5) }
	return color.RGBA{R: half(c.R), G: half(c.G), B: half(c.B), A: 255}
}

func TestVisualizeEmptyIsIdentity(t *testing.T) {
	src := blank(40, 30)
	src.SetRGBA(3, 4, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	c := NewComposer(logs.NewTestingLog(t))

	for _, objects := range [][]detection.Object{nil, {}} {
		out, report := c.Visualize(src, objects, DefaultOptions())
		assert.Equal(t, src.Pix, out.Pix)
		assert.NotSame(t, src, out)
		assert.Equal(t, 0, report.Objects)
		assert.Empty(t, report.Stages)
	}
}

func TestVisualizeCatAndDog(t *testing.T) {
	src := blank(100, 100)
	c := NewComposer(logs.NewTestingLog(t))

	out, report := c.Visualize(src, catAndDog(), DefaultOptions())

	assert.Equal(t, render.DefaultPalette.At(0), out.RGBAAt(10, 30), "cat box left edge")
	assert.Equal(t, render.DefaultPalette.At(1), out.RGBAAt(60, 75), "dog box left edge")
	assert.NotEqual(t, render.DefaultPalette.At(0), render.DefaultPalette.At(1))
	assert.Equal(t, black, out.RGBAAt(30, 30), "cat box interior")
	assert.Equal(t, black, src.RGBAAt(10, 30), "source modified")

	assert.Equal(t, 2, report.Objects)
	require.Len(t, report.Stages, 2*len(Stages))
	assert.Equal(t, 2, report.Count(render.Drawn))
	assert.Empty(t, report.Failures())
	for i := 0; i < 2; i++ {
		res, ok := report.Find(i, StageBBox)
		require.True(t, ok)
		assert.Equal(t, render.Drawn, res.Status)
		res, _ = report.Find(i, StageMask)
		assert.Equal(t, render.Skipped, res.Status)
		assert.Equal(t, "no mask", res.Reason)
	}

	assert.Equal(t, "Detected 2 objects:\n1. cat (confidence: 0.90)\n2. dog (confidence: 0.40)\n", Summarize(catAndDog()))
}

func TestVisualizeDisabledStages(t *testing.T) {
	src := blank(100, 100)
	c := NewComposer(nil)

	out, report := c.Visualize(src, catAndDog(), Options{})
	assert.Equal(t, src.Pix, out.Pix)
	assert.Equal(t, 2*len(Stages), report.Count(render.Skipped))
	res, _ := report.Find(1, StageCaption)
	assert.Equal(t, "disabled", res.Reason)
}

func fullMask(h, w int, fill func(x, y int) bool) *rle.Mask {
	m := rle.NewMask(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fill(x, y) {
				m.Set(x, y, 1)
			}
		}
	}
	return m
}

func TestVisualizeStagesAreIsolated(t *testing.T) {
	src := blank(60, 60)
	leftHalf := fullMask(60, 60, func(x, y int) bool { return x < 30 })
	objects := []detection.Object{
		{
			Category:      "broken",
			Mask:          &rle.RLE{Counts: rle.StringCounts("abc xyz"), Size: []int{60, 60}},
			PoseKeypoints: json.RawMessage(`["not", "points"]`),
			Caption:       "still here",
		},
		{
			Category:      "fine",
			Mask:          rle.EncodeCompressed(leftHalf),
			HandKeypoints: json.RawMessage(`[[45, 45, 1, 0.9]]`),
		},
	}
	c := NewComposer(logs.NewTestingLog(t))
	var observed []StageResult
	c.Observe = func(r StageResult) { observed = append(observed, r) }

	out, report := c.Visualize(src, objects, DefaultOptions())

	assert.Equal(t, report.Stages, observed)
	failures := report.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, StageResult{Object: 0, Stage: StageMask, Status: render.Failed, Reason: failures[0].Reason}, failures[0])
	assert.Contains(t, failures[0].Reason, "unsupported counts encoding")
	assert.Equal(t, StagePose, failures[1].Stage)

	res, _ := report.Find(0, StageCaption)
	assert.Equal(t, render.Drawn, res.Status)
	res, _ = report.Find(1, StageMask)
	assert.Equal(t, render.Drawn, res.Status)
	res, _ = report.Find(1, StageHand)
	assert.Equal(t, render.Drawn, res.Status)

	second := render.DefaultPalette.At(1)
	assert.Equal(t, tinted(second), out.RGBAAt(5, 50))
	assert.Equal(t, black, out.RGBAAt(35, 50))
	assert.Equal(t, second, out.RGBAAt(45, 45))
}

func TestVisualizeResizesMask(t *testing.T) {
	src := blank(40, 40)
	topHalf := fullMask(10, 10, func(x, y int) bool { return y < 5 })
	objects := []detection.Object{{Mask: rle.Encode(topHalf)}}

	out, report := NewComposer(nil).Visualize(src, objects, DefaultOptions())
	res, _ := report.Find(0, StageMask)
	require.Equal(t, render.Drawn, res.Status)
	first := tinted(render.DefaultPalette.At(0))
	assert.Equal(t, first, out.RGBAAt(0, 0))
	assert.Equal(t, first, out.RGBAAt(39, 19))
	assert.Equal(t, black, out.RGBAAt(39, 20))
}

func TestVisualizeMalformedBBoxFails(t *testing.T) {
	r, err := detection.Parse([]byte(`[{"bbox": [1, 2], "category": "x", "caption": "c"}]`))
	require.NoError(t, err)

	_, report := NewComposer(nil).Visualize(blank(20, 20), r.Objects, DefaultOptions())
	res, _ := report.Find(0, StageBBox)
	assert.Equal(t, render.Failed, res.Status)
	res, _ = report.Find(0, StageCaption)
	assert.Equal(t, render.Drawn, res.Status)
}

func TestVisualizeMalformedMaskFailsOnlyThatStage(t *testing.T) {
	r, err := detection.Parse([]byte(`[
		{"bbox": [1, 1, 8, 8], "category": "cup", "mask": [[1, 2, 3, 4]]},
		{"bbox": [10, 10, 18, 18], "category": "dog", "score": "high", "mask": "abc"}
	]`))
	require.NoError(t, err)

	_, report := NewComposer(nil).Visualize(blank(20, 20), r.Objects, DefaultOptions())
	for i := 0; i < 2; i++ {
		res, _ := report.Find(i, StageMask)
		assert.Equal(t, render.Failed, res.Status, "object %d", i)
		assert.Contains(t, res.Reason, "RLE object")
		res, _ = report.Find(i, StageBBox)
		assert.Equal(t, render.Drawn, res.Status, "object %d", i)
	}
}

// brokenFace measures nothing: every glyph lookup panics.
type brokenFace struct{ font.Face }

func (brokenFace) GlyphAdvance(rune) (fixed.Int26_6, bool) { panic("glyph table missing") }

func TestVisualizeRecoversPanics(t *testing.T) {
	c := NewComposer(logs.NewTestingLog(t))
	c.Font = render.Font{Face: brokenFace{basicfont.Face7x13}, Color: render.White, BottomPad: 5}
	objects := catAndDog()
	objects[1].Mask = rle.Encode(fullMask(100, 100, func(x, y int) bool { return true }))

	var out *image.RGBA
	var report Report
	require.NotPanics(t, func() { out, report = c.Visualize(blank(100, 100), objects, DefaultOptions()) })

	for i := 0; i < 2; i++ {
		res, _ := report.Find(i, StageBBox)
		assert.Equal(t, render.Failed, res.Status)
		assert.Equal(t, "panic: glyph table missing", res.Reason)
	}
	res, _ := report.Find(1, StageMask)
	assert.Equal(t, render.Drawn, res.Status)
	assert.Equal(t, tinted(render.DefaultPalette.At(1)), out.RGBAAt(95, 5))
}

func TestCaptionPlacement(t *testing.T) {
	objects := []detection.Object{
		{Caption: "first"},
		{Caption: "second"},
		{BBox: &detection.BBox{X1: 70, Y1: 40, X2: 90, Y2: 60}, Caption: "boxed"},
	}
	opts := Options{ShowCaption: true}
	out, report := NewComposer(nil).Visualize(blank(120, 80), objects, opts)
	assert.Equal(t, 3, report.Count(render.Drawn))

	// Without a box captions stack 20px apart; with one they sit 10px above it.
	p := render.DefaultPalette
	assert.True(t, hasColour(out, p.At(0), 0, 13))
	assert.False(t, hasColour(out, p.At(0), 13, 80))
	assert.True(t, hasColour(out, p.At(1), 19, 33))
	assert.False(t, hasColour(out, p.At(1), 33, 80))
	assert.True(t, hasColour(out, p.At(2), 19, 33))
	assert.False(t, hasColour(out, p.At(2), 33, 80))
}

// hasColour reports whether any pixel in rows [y0, y1) is within a small
// tolerance of c. Glyphs are resampled when drawn, so exact matches are not
// guaranteed.
func hasColour(img *image.RGBA, c color.RGBA, y0, y1 int) bool {
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d > -3 && d < 3
	}
	for y := y0; y < y1 && y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			p := img.RGBAAt(x, y)
			if near(p.R, c.R) && near(p.G, c.G) && near(p.B, c.B) {
				return true
			}
		}
	}
	return false
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, NoObjects, Summarize(nil))
	assert.Equal(t, NoObjects, Summarize([]detection.Object{}))

	objects := []detection.Object{
		{Category: "person", Score: score(0.987), Caption: "a runner"},
		{},
	}
	assert.Equal(t, "Detected 2 objects:\n1. person (confidence: 0.99) - a runner\n2. unknown (confidence: 0.00)\n", Summarize(objects))
}

func TestReportJSON(t *testing.T) {
	r := Report{Objects: 1, Stages: []StageResult{{Object: 0, Stage: StageMask, Status: render.Failed, Reason: "bad"}}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"objects":1,"stages":[{"object":0,"stage":"mask","status":"failed","reason":"bad"}]}`, string(b))
}
