// Package tinyyolov3 - TinyYOLOv3 direct-regression model.
package tinyyolov3

import (
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/models/model"
)

// TinyYOLOv3 decodes the single-layer direct-regression export: the graph
// itself maps boxes back into original-image pixels (it consumes the shape
// tensor at inference time), so decoding is a threshold scan plus a scale
// into the caller's target space.
type TinyYOLOv3 struct {
	cfg *model.Config
}

// NewModel creates a TinyYOLOv3 decoding strategy from a validated config.
//
// Arguments:
//   - cfg: The model configuration; must name this architecture.
//
// Returns:
//   - *TinyYOLOv3: The model.
//   - error: ErrConfiguration-wrapped on an architecture mismatch.
func NewModel(cfg *model.Config) (*TinyYOLOv3, error) {
	if cfg.Name != model.ModelNameTinyYOLOv3 {
		return nil, errors.Wrapf(model.ErrConfiguration,
			"tinyyolov3.NewModel called with model name %q", cfg.Name)
	}
	return &TinyYOLOv3{cfg: cfg}, nil
}

// Options returns the model's static configuration.
func (m *TinyYOLOv3) Options() *model.Config {
	return m.cfg
}
