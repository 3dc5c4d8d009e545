package keypoints

// Bone connects two keypoints by index.
type Bone struct {
	From, To int
}

// Topology is a fixed skeleton: which keypoints exist and how they connect.
type Topology struct {
	Name   string
	Points int
	Bones  []Bone
}

// Body is the 17 point COCO person skeleton:
//
//	0 nose, 1-2 eyes, 3-4 ears, 5-6 shoulders, 7-8 elbows, 9-10 wrists,
//	11-12 hips, 13-14 knees, 15-16 ankles (left before right).
var Body = Topology{
	Name:   "body",
	Points: 17,
	Bones: []Bone{
		// face
		{0, 1}, {0, 2}, {1, 3}, {2, 4},
		// arms
		{5, 7}, {7, 9}, {6, 8}, {8, 10},
		// torso
		{5, 6}, {5, 11}, {6, 12}, {11, 12},
		// legs
		{11, 13}, {13, 15}, {12, 14}, {14, 16},
	},
}

// Hand is the 21 point hand skeleton. Point 0 is the wrist and each finger
// is a chain of four bones out from it: thumb, index, middle, ring, pinky.
var Hand = Topology{
	Name:   "hand",
	Points: 21,
	Bones:  handBones(),
}

func handBones() []Bone {
	bones := make([]Bone, 0, 20)
	for finger := 0; finger < 5; finger++ {
		base := finger*4 + 1
		bones = append(bones, Bone{0, base})
		for j := 0; j < 3; j++ {
			bones = append(bones, Bone{base + j, base + j + 1})
		}
	}
	return bones
}
