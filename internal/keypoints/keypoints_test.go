package keypoints

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		raw  string
		want Shape
	}{
		{``, ShapeEmpty},
		{`null`, ShapeEmpty},
		{`[]`, ShapeEmpty},
		{`[1, 2, 1, 0.9]`, ShapeFlat},
		{`[-1.5, 2]`, ShapeFlat},
		{`[[1, 2, 1, 0.9]]`, ShapeNested},
		{`[{"x": 1}]`, ShapeMapping},
		{`["a", "b"]`, ShapeUnknown},
		{`[true]`, ShapeUnknown},
		{`{"x": 1}`, ShapeUnknown},
		{`"keypoints"`, ShapeUnknown},
		{`[1, 2`, ShapeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Inspect(json.RawMessage(tt.raw)))
		})
	}
}

func TestNormalizeShapesAreEquivalent(t *testing.T) {
	want := []Keypoint{
		{X: 10, Y: 20, Visibility: 1, Confidence: 0.9},
		{X: 30.5, Y: 40, Visibility: 0, Confidence: 0.2},
		{X: 50, Y: 60, Visibility: 2, Confidence: 0.05},
	}
	layouts := map[string]string{
		"flat":    `[10, 20, 1, 0.9, 30.5, 40, 0, 0.2, 50, 60, 2, 0.05]`,
		"nested":  `[[10, 20, 1, 0.9], [30.5, 40, 0, 0.2], [50, 60, 2, 0.05]]`,
		"mapping": `[{"x": 10, "y": 20, "visible": 1, "score": 0.9}, {"x": 30.5, "y": 40, "visible": 0, "score": 0.2}, {"x": 50, "y": 60, "visible": 2, "score": 0.05}]`,
	}
	for name, raw := range layouts {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(json.RawMessage(raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeFlatDropsTrailingChunk(t *testing.T) {
	got, err := Normalize(json.RawMessage(`[1, 2, 1, 0.5, 9, 9, 1]`))
	require.NoError(t, err)
	assert.Equal(t, []Keypoint{{X: 1, Y: 2, Visibility: 1, Confidence: 0.5}}, got)

	got, err = Normalize(json.RawMessage(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeMappingDefaults(t *testing.T) {
	got, err := Normalize(json.RawMessage(`[{"x": 4, "visible": true}, {"y": 7, "score": 0.3, "label": "nose"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Keypoint{
		{X: 4, Y: 0, Visibility: 1, Confidence: 0},
		{X: 0, Y: 7, Visibility: 0, Confidence: 0.3},
	}, got)
}

func TestNormalizeNestedExtraValuesIgnored(t *testing.T) {
	got, err := Normalize(json.RawMessage(`[[1, 2, 1, 0.5, 99]]`))
	require.NoError(t, err)
	assert.Equal(t, []Keypoint{{X: 1, Y: 2, Visibility: 1, Confidence: 0.5}}, got)
}

func TestNormalizeDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", `[]`, ErrEmpty},
		{"null", `null`, ErrEmpty},
		{"strings", `["a"]`, ErrUnknownShape},
		{"object", `{"x": 1}`, ErrUnknownShape},
		{"short nested row", `[[1, 2, 3]]`, ErrMalformedPoints},
		{"mixed nested", `[[1, 2, 3, 4], 5]`, ErrMalformedPoints},
		{"mixed flat", `[1, "two", 3, 4]`, ErrMalformedPoints},
		{"bad mapping value", `[{"x": "left"}]`, ErrMalformedPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestVisibleGate(t *testing.T) {
	assert.False(t, Keypoint{Visibility: 1, Confidence: 0.1}.Visible())
	assert.True(t, Keypoint{Visibility: 1, Confidence: 0.1001}.Visible())
	assert.False(t, Keypoint{Visibility: 0, Confidence: 0.9}.Visible())
	assert.False(t, Keypoint{Visibility: -1, Confidence: 0.9}.Visible())
}

func TestTopologies(t *testing.T) {
	assert.Equal(t, 17, Body.Points)
	assert.Len(t, Body.Bones, 16)
	assert.Equal(t, 21, Hand.Points)
	require.Len(t, Hand.Bones, 20)

	for _, topo := range []Topology{Body, Hand} {
		for _, b := range topo.Bones {
			assert.True(t, b.From >= 0 && b.From < topo.Points, "%s bone %v", topo.Name, b)
			assert.True(t, b.To >= 0 && b.To < topo.Points, "%s bone %v", topo.Name, b)
		}
	}

	wrist := 0
	for _, b := range Hand.Bones {
		if b.From == 0 {
			wrist++
		}
	}
	assert.Equal(t, 5, wrist)
	assert.Equal(t, Bone{0, 1}, Hand.Bones[0])
	assert.Equal(t, Bone{19, 20}, Hand.Bones[19])
}
