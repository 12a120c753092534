package model

import "github.com/pkg/errors"

// ResolveScoreLayout determines the axis order of a 5-dimensional score
// tensor from its declared dimensions. Exports differ: some place the class
// axis last ([1, H, W, A, C]), others first ([1, C, H, W, A]). This runs
// once against the model's output metadata at session-load time; the result
// is stored on the Config and reused for every frame.
//
// Dynamic dimensions (reported as -1) are treated as non-matching, so a
// model that only declares the class axis statically still resolves.
//
// Arguments:
//   - dims: The declared tensor dimensions, length 5.
//   - numClasses: The label count the class axis must equal.
//
// Returns:
//   - TensorLayout: The resolved layout.
//   - error: ErrDecoding-wrapped when neither axis matches the class count.
func ResolveScoreLayout(dims []int64, numClasses int) (TensorLayout, error) {
	if len(dims) != 5 {
		return LayoutUnknown, errors.Wrapf(ErrDecoding,
			"score tensor has %d dimensions %v, want 5", len(dims), dims)
	}
	switch {
	case int(dims[4]) == numClasses:
		return LayoutClassLast, nil
	case int(dims[1]) == numClasses:
		return LayoutClassFirst, nil
	default:
		return LayoutUnknown, errors.Wrapf(ErrDecoding,
			"no axis of score tensor %v matches class count %d", dims, numClasses)
	}
}
