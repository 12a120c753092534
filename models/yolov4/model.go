// Package yolov4 - YOLOv4 anchor-based grid model.
package yolov4

import (
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/models/model"
)

// YOLOv4 decodes the three-layer anchor-based export: each output layer is a
// spatial grid at a different stride, and every grid cell regresses boxes
// against a fixed set of anchor priors. Unlike the direct-regression
// variant, the raw outputs live in network-input space, so decoding also
// inverts the preprocessing letterbox.
type YOLOv4 struct {
	cfg *model.Config
}

// NewModel creates a YOLOv4 decoding strategy from a validated config.
//
// Arguments:
//   - cfg: The model configuration; must name this architecture.
//
// Returns:
//   - *YOLOv4: The model.
//   - error: ErrConfiguration-wrapped on an architecture mismatch.
func NewModel(cfg *model.Config) (*YOLOv4, error) {
	if cfg.Name != model.ModelNameYOLOv4 {
		return nil, errors.Wrapf(model.ErrConfiguration,
			"yolov4.NewModel called with model name %q", cfg.Name)
	}
	return &YOLOv4{cfg: cfg}, nil
}

// Options returns the model's static configuration.
func (m *YOLOv4) Options() *model.Config {
	return m.cfg
}
