package overlay

import (
	"fmt"
	"strings"

	"github.com/tkzzzzzz6/dino-x/internal/detection"
)

// NoObjects is the summary of an empty result.
const NoObjects = "No objects detected."

// Summarize describes objects one per line, in input order:
//
//	Detected 2 objects:
//	1. cat (confidence: 0.90) - a cat on a mat
//	2. dog (confidence: 0.40)
func Summarize(objects []detection.Object) string {
	if len(objects) == 0 {
		return NoObjects
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d objects:\n", len(objects))
	for i := range objects {
		o := &objects[i]
		fmt.Fprintf(&b, "%d. %s (confidence: %.2f)", i+1, o.CategoryOr(detection.SummaryCategory), o.ScoreOr(detection.SummaryScore))
		if o.Caption != "" {
			b.WriteString(" - ")
			b.WriteString(o.Caption)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
