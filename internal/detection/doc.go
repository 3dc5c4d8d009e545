// Package detection holds the data model for results returned by the
// detection provider.
//
// A Result is a list of Objects. Every field of an Object is optional:
//
//	{"objects": [{
//	    "bbox": [x1, y1, x2, y2],
//	    "category": "cat",
//	    "score": 0.93,
//	    "mask": {"counts": "...", "size": [h, w]},
//	    "pose_keypoints": [...],
//	    "hand_keypoints": [...],
//	    "caption": "a cat on a sofa"
//	}]}
//
// Decoding is lenient about the optional parts. A bbox, mask or keypoint
// payload that cannot be read is kept (or dropped) without failing the
// surrounding result, so one bad object never hides the others. Consumers
// pick their own defaults for missing fields with CategoryOr and ScoreOr.
package detection
