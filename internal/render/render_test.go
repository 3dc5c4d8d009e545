package render

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkzzzzzz6/dino-x/internal/keypoints"
	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

var (
	gray  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

// solid returns a w x h image filled with c.
func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestDefaultPalette(t *testing.T) {
	require.Len(t, DefaultPalette, 10)
	assert.Equal(t, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}, DefaultPalette.At(0))
	assert.Equal(t, "#ff7f0e", Hex(DefaultPalette.At(1)))
	assert.Equal(t, DefaultPalette.At(0), DefaultPalette.At(10))
	assert.Equal(t, DefaultPalette.At(9), DefaultPalette.At(-1))

	for _, bad := range []string{"#12345", "#1234567", "#12", "123456", ""} {
		_, err := NewPalette(bad)
		assert.Error(t, err, "%q", bad)
	}
	_, err := NewPalette()
	assert.Error(t, err)

	short, err := NewPalette("#fff", "#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, White, short.At(0))
	assert.Equal(t, DefaultPalette.At(0), short.At(1))
	assert.Equal(t, White, Palette(nil).At(3))
}

func TestCopyMovesOriginAndDetaches(t *testing.T) {
	src := solid(20, 20, gray)
	src.SetRGBA(5, 6, red)
	sub := src.SubImage(image.Rect(5, 6, 15, 16))

	out := Copy(sub)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, red, out.RGBAAt(0, 0))

	out.SetRGBA(0, 0, green)
	assert.Equal(t, red, src.RGBAAt(5, 6))
}

func TestBlendMaskOnlyTouchesMaskedPixels(t *testing.T) {
	img := solid(3, 2, gray)
	m := rle.NewMask(2, 3)
	m.Set(1, 0, 1)

	n := NewCanvas(img).BlendMask(m, red, MaskAlpha)
	assert.Equal(t, 1, n)
	assert.Equal(t, color.RGBA{R: 178, G: 50, B: 50, A: 255}, img.RGBAAt(1, 0))
	for _, p := range []image.Point{{0, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}} {
		assert.Equal(t, gray, img.RGBAAt(p.X, p.Y), "pixel %v", p)
	}
}

func TestBlendMaskSizeMismatch(t *testing.T) {
	img := solid(2, 2, gray)
	m := rle.NewMask(4, 4)
	for i := range m.Pix {
		m.Pix[i] = 1
	}
	assert.Equal(t, 4, NewCanvas(img).BlendMask(m, red, 1))
	assert.Equal(t, red, img.RGBAAt(1, 1))
	assert.Equal(t, 0, NewCanvas(img).BlendMask(nil, red, 1))
}

func TestBoxClamps(t *testing.T) {
	c := NewCanvas(solid(100, 100, color.RGBA{A: 255}))

	r := c.Box(10, 10, 50, 50, red)
	assert.Equal(t, image.Rect(10, 10, 50, 50), r)
	assert.Equal(t, red, c.Image().RGBAAt(10, 30))
	assert.Equal(t, red, c.Image().RGBAAt(50, 30))
	assert.Equal(t, color.RGBA{A: 255}, c.Image().RGBAAt(30, 30))

	assert.Equal(t, r, c.Clamp(50, 50, 10, 10))
	assert.Equal(t, image.Rect(0, 0, 99, 40), c.Clamp(-20, -5, 500, 40))
	assert.Equal(t, image.Rect(10, 10, 99, 50), c.Clamp(10, 10, 1e300, 50))
	assert.Equal(t, image.Rect(0, 10, 10, 50), c.Clamp(-1e300, 10, 10, 50))
	assert.NotPanics(t, func() { c.Box(-1e9, 1e9, 1e9, -1e9, green) })
}

func TestLabelStaysInsideImage(t *testing.T) {
	c := NewCanvas(solid(100, 100, color.RGBA{A: 255}))

	r := c.Label(10, 10, "cat 0.90", red)
	assert.Equal(t, 0, r.Min.Y)
	assert.Equal(t, 10, r.Min.X)
	assert.Equal(t, 7*len("cat 0.90"), r.Dx())
	assert.Equal(t, red, c.Image().RGBAAt(r.Min.X, r.Max.Y-1))

	r = c.Label(20, 60, "dog", green)
	assert.Equal(t, 60, r.Max.Y)
	assert.Equal(t, green, c.Image().RGBAAt(20, 59))
}

func pair() keypoints.Topology {
	return keypoints.Topology{Name: "pair", Points: 2, Bones: []keypoints.Bone{{From: 0, To: 1}, {From: 1, To: 5}}}
}

func TestDrawKeypoints(t *testing.T) {
	src := solid(50, 50, color.RGBA{A: 255})
	out, outcome := DrawKeypoints(src, json.RawMessage(`[10, 10, 1, 0.9, 30, 10, 1, 0.9]`), pair(), red)

	require.NoError(t, outcome.Err)
	assert.Equal(t, Drawn, outcome.Status)
	assert.Equal(t, 2, outcome.Points)
	assert.Equal(t, 1, outcome.Bones)
	assert.Equal(t, red, out.RGBAAt(10, 10))
	assert.Equal(t, red, out.RGBAAt(20, 10))
	assert.Equal(t, red, out.RGBAAt(30, 10))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(20, 30))
	assert.Equal(t, color.RGBA{A: 255}, src.RGBAAt(10, 10), "source modified")
}

func TestDrawKeypointsVisibilityGate(t *testing.T) {
	src := solid(50, 50, color.RGBA{A: 255})
	out, outcome := DrawKeypoints(src, json.RawMessage(`[[10, 10, 1, 0.1], [30, 10, 1, 0.9]]`), pair(), red)
	assert.Equal(t, Drawn, outcome.Status)
	assert.Equal(t, 1, outcome.Points)
	assert.Equal(t, 0, outcome.Bones)
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(10, 10))
	assert.Equal(t, red, out.RGBAAt(30, 10))
}

func TestDrawKeypointsShortPayloadSkipsBones(t *testing.T) {
	src := solid(50, 50, color.RGBA{A: 255})
	raw := json.RawMessage(`[5, 5, 1, 0.9, 6, 6, 1, 0.9, 7, 7, 1, 0.9]`)
	var out *image.RGBA
	var outcome Outcome
	require.NotPanics(t, func() { out, outcome = DrawKeypoints(src, raw, keypoints.Body, green) })
	assert.Equal(t, Drawn, outcome.Status)
	assert.Equal(t, 3, outcome.Points)
	// Only the nose-eye bones fall within three points.
	assert.Equal(t, 2, outcome.Bones)
	assert.NotNil(t, out)
}

func TestDrawKeypointsUnreadablePayload(t *testing.T) {
	src := solid(8, 8, gray)
	tests := []struct {
		name string
		raw  string
		want Status
	}{
		{"empty", `[]`, Skipped},
		{"absent", ``, Skipped},
		{"strings", `["a", "b"]`, Failed},
		{"short rows", `[[1, 2]]`, Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, outcome := DrawKeypoints(src, json.RawMessage(tt.raw), keypoints.Hand, red)
			assert.Equal(t, tt.want, outcome.Status)
			assert.Error(t, outcome.Err)
			assert.Equal(t, src.Pix, out.Pix)
			assert.NotSame(t, src, out)
		})
	}
}

func TestDrawKeypointsFarAway(t *testing.T) {
	src := solid(8, 8, gray)
	out, outcome := DrawKeypoints(src, json.RawMessage(`[1e300, -1e300, 1, 0.9]`), pair(), red)
	assert.Equal(t, Drawn, outcome.Status)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestStatusText(t *testing.T) {
	b, err := json.Marshal(map[string]Status{"a": Drawn, "b": Failed, "c": Skipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"drawn","b":"failed","c":"skipped"}`, string(b))
}
