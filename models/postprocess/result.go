// Package postprocess - Candidate filtering and Non-Maximum Suppression.
package postprocess

import (
	"fmt"

	"github.com/framewatch-ai/go-detect/images"
)

// Result is a single pre-NMS candidate detection.
type Result struct {
	// The bounding box of the candidate, in the pipeline's target
	// coordinate space.
	Box images.Rect
	// The confidence score of the candidate, in [0,1].
	Score float32
	// The predicted class index of the candidate.
	Class int
}

// Detection is the final output unit of the pipeline: a labelled box with a
// confidence score, immutable once constructed. The box is expressed in
// original-image pixels unless the model config sets a display resolution.
type Detection struct {
	Label      string     `json:"label"`
	Confidence float32    `json:"confidence"`
	Box        images.Box `json:"boundingBox"`
}

// ToDetections resolves class indices to labels by direct array index and
// converts boxes into the origin+size output form.
//
// A class id outside [0, len(labels)) means the label file does not match
// the model the scores came from; that is a configuration/model mismatch and
// fails the whole conversion rather than dropping the detection.
//
// Arguments:
//   - results: The suppressed candidates.
//   - labels: Ordered labels; position = class id.
//
// Returns:
//   - []Detection: One detection per candidate, same order.
//   - error: Error naming the offending class id on a bounds violation.
func ToDetections(results []Result, labels []string) ([]Detection, error) {
	detections := make([]Detection, 0, len(results))
	for _, r := range results {
		if r.Class < 0 || r.Class >= len(labels) {
			return nil, fmt.Errorf("class id %d outside label range [0,%d)", r.Class, len(labels))
		}
		detections = append(detections, Detection{
			Label:      labels[r.Class],
			Confidence: r.Score,
			Box:        r.Box.ToBox(),
		})
	}
	return detections, nil
}
