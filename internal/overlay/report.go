package overlay

import (
	"github.com/tkzzzzzz6/dino-x/internal/render"
)

// Stage is one draw step applied to an object.
type Stage string

const (
	StageBBox    Stage = "bbox"
	StageMask    Stage = "mask"
	StagePose    Stage = "pose"
	StageHand    Stage = "hand"
	StageCaption Stage = "caption"
)

// Stages lists the draw steps in the order they run for each object.
var Stages = []Stage{StageBBox, StageMask, StagePose, StageHand, StageCaption}

// StageResult records how one stage went for one object.
type StageResult struct {
	Object int           `json:"object"`
	Stage  Stage         `json:"stage"`
	Status render.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// Report lists every stage of every object in draw order.
type Report struct {
	Objects int           `json:"objects"`
	Stages  []StageResult `json:"stages"`
}

// Count returns how many stages ended with status.
func (r *Report) Count(status render.Status) int {
	n := 0
	for _, s := range r.Stages {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed stages.
func (r *Report) Failures() []StageResult {
	var out []StageResult
	for _, s := range r.Stages {
		if s.Status == render.Failed {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the result of stage for object i.
func (r *Report) Find(i int, stage Stage) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Object == i && s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}
