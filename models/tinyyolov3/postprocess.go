package tinyyolov3

import (
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/images"
	"github.com/framewatch-ai/go-detect/models/model"
	"github.com/framewatch-ai/go-detect/models/postprocess"
)

// DecodeOutputs extracts pre-NMS candidates from the model's two output
// tensors.
//
// The boxes tensor is [1, N, 4] holding (y1, x1, y2, x2) per candidate,
// already in original-image pixels. The scores tensor is [1, C, N] with one
// confidence per class per candidate. For each candidate the best class is
// found by a strict > scan (the first class wins ties), candidates whose
// best score is strictly below the confidence threshold are dropped, and
// surviving boxes are scaled from original-image space into the configured
// target space.
//
// Arguments:
//   - outputs: The named inference outputs.
//   - originalWidth: Image width before preprocessing.
//   - originalHeight: Image height before preprocessing.
//
// Returns:
//   - []postprocess.Result: Candidates above the threshold.
//   - error: ErrDecoding-wrapped when tensors are missing or their shapes do
//     not match the export contract.
func (m *TinyYOLOv3) DecodeOutputs(
	outputs []model.Tensor,
	originalWidth, originalHeight int,
) ([]postprocess.Result, error) {
	bindings := m.cfg.Layers[0].Outputs

	boxes := model.FindTensor(outputs, bindings.Boxes)
	if boxes == nil {
		return nil, errors.Wrapf(model.ErrDecoding, "boxes tensor %q not found in outputs", bindings.Boxes)
	}
	scores := model.FindTensor(outputs, bindings.Scores)
	if scores == nil {
		return nil, errors.Wrapf(model.ErrDecoding, "scores tensor %q not found in outputs", bindings.Scores)
	}

	if len(boxes.Shape) != 3 || boxes.Shape[0] != 1 || boxes.Shape[2] != 4 {
		return nil, errors.Wrapf(model.ErrDecoding,
			"boxes tensor %q has shape %s, want [1 N 4]", boxes.Name, boxes.ShapeString())
	}
	numCandidates := int(boxes.Shape[1])
	numClasses := m.cfg.NumClasses()

	if len(scores.Shape) != 3 || scores.Shape[0] != 1 ||
		int(scores.Shape[1]) != numClasses || int(scores.Shape[2]) != numCandidates {
		return nil, errors.Wrapf(model.ErrDecoding,
			"scores tensor %q has shape %s, want [1 %d %d]",
			scores.Name, scores.ShapeString(), numClasses, numCandidates)
	}

	// Scaling is relative to the original image: the graph's shape-tensor
	// input already mapped boxes out of the padded network space.
	targetWidth, targetHeight := originalWidth, originalHeight
	if m.cfg.Display != nil {
		targetWidth, targetHeight = m.cfg.Display.Width, m.cfg.Display.Height
	}
	scaleX := float32(targetWidth) / float32(originalWidth)
	scaleY := float32(targetHeight) / float32(originalHeight)

	results := make([]postprocess.Result, 0, numCandidates)
	for i := 0; i < numCandidates; i++ {
		bestClass := 0
		maxScore := float32(-1)
		for c := 0; c < numClasses; c++ {
			if score := scores.Data[c*numCandidates+i]; score > maxScore {
				maxScore = score
				bestClass = c
			}
		}
		// Rejection is strict <: a candidate at exactly the threshold is kept.
		if maxScore < m.cfg.ConfidenceThreshold {
			continue
		}

		y1 := boxes.Data[i*4+0]
		x1 := boxes.Data[i*4+1]
		y2 := boxes.Data[i*4+2]
		x2 := boxes.Data[i*4+3]

		results = append(results, postprocess.Result{
			Box:   images.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}.Scale(scaleX, scaleY),
			Score: maxScore,
			Class: bestClass,
		})
	}

	return results, nil
}
