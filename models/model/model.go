// Package model - Shared contracts for detection models.
package model

import (
	"github.com/framewatch-ai/go-detect/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyYOLO is the YOLO model family.
	ModelFamilyYOLO Family = "yolo"
)

// Name is the unique identifier of a model architecture.
type Name string

const (
	// ModelNameTinyYOLOv3 is the single-layer direct-regression variant.
	ModelNameTinyYOLOv3 Name = "tinyyolov3"
	// ModelNameYOLOv4 is the three-layer anchor-based grid variant.
	ModelNameYOLOv4 Name = "yolov4"
)

// TensorLayout identifies the axis order of a score tensor as exported by a
// particular model. It is resolved once from the model's declared output
// metadata when the session is created, never re-detected per frame.
type TensorLayout int

const (
	// LayoutUnknown means the layout has not been resolved yet.
	LayoutUnknown TensorLayout = iota
	// LayoutClassLast is [1, H, W, A, C]: class scores are the innermost axis.
	LayoutClassLast
	// LayoutClassFirst is [1, C, H, W, A]: class scores are the outermost
	// axis after batch.
	LayoutClassFirst
)

func (l TensorLayout) String() string {
	switch l {
	case LayoutClassLast:
		return "class-last"
	case LayoutClassFirst:
		return "class-first"
	default:
		return "unknown"
	}
}

// Model is a decoding strategy for one architecture. The concrete variant is
// selected once at configuration-load time and held behind this interface
// for the process lifetime; per-frame calls never branch on architecture.
type Model interface {
	// Options returns the model's static configuration.
	Options() *Config

	// DecodeOutputs converts raw inference output tensors into pre-NMS
	// candidate detections in the configured target coordinate space.
	//
	// Arguments:
	//   - outputs: The named output tensors returned by inference.
	//   - originalWidth: Width of the image before preprocessing.
	//   - originalHeight: Height of the image before preprocessing.
	//
	// Returns:
	//   - []postprocess.Result: Zero or more candidates above the confidence
	//     threshold.
	//   - error: A decoding error when tensor names or shapes do not match
	//     the architecture's export contract.
	DecodeOutputs(outputs []Tensor, originalWidth, originalHeight int) ([]postprocess.Result, error)
}
