package overlay

// Options toggles the draw stages. Each stage is independent.
type Options struct {
	ShowBBox    bool `json:"show_bbox"`
	ShowMask    bool `json:"show_mask"`
	ShowPose    bool `json:"show_pose"`
	ShowHand    bool `json:"show_hand"`
	ShowCaption bool `json:"show_caption"`
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{
		ShowBBox:    true,
		ShowMask:    true,
		ShowPose:    true,
		ShowHand:    true,
		ShowCaption: true,
	}
}

func (o Options) enabled(s Stage) bool {
	switch s {
	case StageBBox:
		return o.ShowBBox
	case StageMask:
		return o.ShowMask
	case StagePose:
		return o.ShowPose
	case StageHand:
		return o.ShowHand
	case StageCaption:
		return o.ShowCaption
	}
	return false
}
