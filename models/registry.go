// Package models - registry for detection models.
package models

import (
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/models/model"
	"github.com/framewatch-ai/go-detect/models/tinyyolov3"
	"github.com/framewatch-ai/go-detect/models/yolov4"
)

// NewModel creates the decoding strategy named by the configuration.
//
// This is the single selection point for per-model behavior: the concrete
// variant is chosen here, once, at startup, and held behind the model.Model
// interface for the process lifetime. Per-frame code never branches on
// architecture.
//
// Arguments:
//   - cfg: A validated model configuration.
//
// Returns:
//   - model.Model: The decoding strategy.
//   - error: ErrConfiguration-wrapped for an unsupported model name.
func NewModel(cfg *model.Config) (model.Model, error) {
	switch cfg.Name {
	case model.ModelNameTinyYOLOv3:
		return tinyyolov3.NewModel(cfg)
	case model.ModelNameYOLOv4:
		return yolov4.NewModel(cfg)
	default:
		return nil, errors.Wrapf(model.ErrConfiguration, "unsupported model name: %s", cfg.Name)
	}
}
