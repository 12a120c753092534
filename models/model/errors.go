package model

import "github.com/pkg/errors"

// Error taxonomy for the detection pipeline. Every failure surfaced by a
// detection call wraps exactly one of these sentinels, so callers can branch
// with errors.Is without inspecting message text.
var (
	// ErrInvalidImage marks a malformed or zero-dimension image input. Not
	// retried; surfaced to the caller.
	ErrInvalidImage = errors.New("invalid image")

	// ErrConfiguration marks missing tensor names, invalid threshold ranges,
	// or missing model/label files. Fatal at startup; the pipeline never
	// starts partially configured.
	ErrConfiguration = errors.New("model configuration error")

	// ErrInference marks an abnormal return from the inference runtime. The
	// pipeline performs no retry; transient driver conditions are the
	// caller's concern.
	ErrInference = errors.New("inference error")

	// ErrDecoding marks an output tensor whose shape or layout matches no
	// known model format. This is a model-mismatch bug, not a recoverable
	// runtime condition.
	ErrDecoding = errors.New("output decoding error")
)
