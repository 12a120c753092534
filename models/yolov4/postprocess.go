package yolov4

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/images"
	"github.com/framewatch-ai/go-detect/models/model"
	"github.com/framewatch-ai/go-detect/models/postprocess"
)

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + math32.Exp(-x))
}

// DecodeOutputs extracts pre-NMS candidates from the three detection layers.
//
// For every grid cell and anchor the raw regression values (tx, ty, tw, th)
// are decoded into a center+size box in network-input pixels:
//
//	x = (sigmoid(tx)*xyscale - 0.5*(xyscale-1) + gridX) * stride
//	w = exp(tw) * anchorWidth
//
// the letterbox applied during preprocessing is inverted to land in
// original-image pixels, boxes are clipped to the image, and degenerate or
// below-threshold candidates are dropped. Candidates from all three layers
// are returned as one list; suppression happens downstream.
//
// Arguments:
//   - outputs: The named inference outputs, two tensors per layer.
//   - originalWidth: Image width before preprocessing.
//   - originalHeight: Image height before preprocessing.
//
// Returns:
//   - []postprocess.Result: Candidates above the threshold, all layers
//     combined.
//   - error: ErrDecoding-wrapped on missing tensors, shape mismatches, or an
//     unresolved score layout.
func (m *YOLOv4) DecodeOutputs(
	outputs []model.Tensor,
	originalWidth, originalHeight int,
) ([]postprocess.Result, error) {
	layout := m.cfg.ScoreLayout
	if layout == model.LayoutUnknown {
		return nil, errors.Wrap(model.ErrDecoding,
			"score tensor layout was not resolved at session load")
	}

	lb := images.ComputeLetterbox(originalWidth, originalHeight, m.cfg.ImageSize)

	var displayX, displayY float32 = 1, 1
	if m.cfg.Display != nil {
		displayX = float32(m.cfg.Display.Width) / float32(originalWidth)
		displayY = float32(m.cfg.Display.Height) / float32(originalHeight)
	}

	var results []postprocess.Result
	for i, layer := range m.cfg.Layers {
		layerResults, err := m.decodeLayer(outputs, layer, layout, lb, originalWidth, originalHeight)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d (stride %d)", i, layer.Stride)
		}
		results = append(results, layerResults...)
	}

	if displayX != 1 || displayY != 1 {
		for i := range results {
			results[i].Box = results[i].Box.Scale(displayX, displayY)
		}
	}

	return results, nil
}

// decodeLayer walks one detection layer's grid and emits its candidates in
// original-image pixels.
func (m *YOLOv4) decodeLayer(
	outputs []model.Tensor,
	layer model.LayerConfig,
	layout model.TensorLayout,
	lb images.Letterbox,
	originalWidth, originalHeight int,
) ([]postprocess.Result, error) {
	boxes := model.FindTensor(outputs, layer.Outputs.Boxes)
	if boxes == nil {
		return nil, errors.Wrapf(model.ErrDecoding, "boxes tensor %q not found in outputs", layer.Outputs.Boxes)
	}
	scores := model.FindTensor(outputs, layer.Outputs.Scores)
	if scores == nil {
		return nil, errors.Wrapf(model.ErrDecoding, "scores tensor %q not found in outputs", layer.Outputs.Scores)
	}

	grid := m.cfg.ImageSize / layer.Stride
	numAnchors := len(layer.Anchors)
	numClasses := m.cfg.NumClasses()

	if !shapeEquals(boxes.Shape, 1, grid, grid, numAnchors, 4) {
		return nil, errors.Wrapf(model.ErrDecoding,
			"boxes tensor %q has shape %s, want [1 %d %d %d 4]",
			boxes.Name, boxes.ShapeString(), grid, grid, numAnchors)
	}
	switch layout {
	case model.LayoutClassLast:
		if !shapeEquals(scores.Shape, 1, grid, grid, numAnchors, numClasses) {
			return nil, errors.Wrapf(model.ErrDecoding,
				"scores tensor %q has shape %s, want [1 %d %d %d %d]",
				scores.Name, scores.ShapeString(), grid, grid, numAnchors, numClasses)
		}
	case model.LayoutClassFirst:
		if !shapeEquals(scores.Shape, 1, numClasses, grid, grid, numAnchors) {
			return nil, errors.Wrapf(model.ErrDecoding,
				"scores tensor %q has shape %s, want [1 %d %d %d %d]",
				scores.Name, scores.ShapeString(), numClasses, grid, grid, numAnchors)
		}
	}

	// scoreAt reads the confidence for one class at a grid/anchor position
	// in whichever axis order this export uses.
	scoreAt := func(gy, gx, a, c int) float32 {
		if layout == model.LayoutClassLast {
			return scores.Data[(((gy*grid)+gx)*numAnchors+a)*numClasses+c]
		}
		return scores.Data[((c*grid+gy)*grid+gx)*numAnchors+a]
	}

	stride := float32(layer.Stride)
	xyscale := layer.XYScale
	imgW := float32(originalWidth)
	imgH := float32(originalHeight)

	var results []postprocess.Result
	for gy := 0; gy < grid; gy++ {
		for gx := 0; gx < grid; gx++ {
			for a := 0; a < numAnchors; a++ {
				base := ((((gy * grid) + gx) * numAnchors) + a) * 4
				tx := boxes.Data[base]
				ty := boxes.Data[base+1]
				tw := boxes.Data[base+2]
				th := boxes.Data[base+3]

				cx := (sigmoid(tx)*xyscale - 0.5*(xyscale-1) + float32(gx)) * stride
				cy := (sigmoid(ty)*xyscale - 0.5*(xyscale-1) + float32(gy)) * stride
				w := math32.Exp(tw) * layer.Anchors[a][0]
				h := math32.Exp(th) * layer.Anchors[a][1]

				box := lb.Invert(images.FromCenterSize(cx, cy, w, h)).Clip(imgW, imgH)
				if box.Empty() {
					continue
				}

				bestClass := 0
				maxScore := float32(-1)
				for c := 0; c < numClasses; c++ {
					if score := scoreAt(gy, gx, a, c); score > maxScore {
						maxScore = score
						bestClass = c
					}
				}
				if maxScore < m.cfg.ConfidenceThreshold {
					continue
				}

				results = append(results, postprocess.Result{
					Box:   box,
					Score: maxScore,
					Class: bestClass,
				})
			}
		}
	}

	return results, nil
}

func shapeEquals(shape []int64, dims ...int) bool {
	if len(shape) != len(dims) {
		return false
	}
	for i, d := range dims {
		if int(shape[i]) != d {
			return false
		}
	}
	return true
}
