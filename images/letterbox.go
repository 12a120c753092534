package images

import "math"

// Letterbox describes the aspect-ratio-preserving resize-and-pad transform
// used to fit an arbitrary image into a square network input. The same
// parameters are needed twice per frame: once by the preprocessor to build
// the padded input, and once by grid decoders to map network-space boxes back
// into original-image pixels. Computing them in one place keeps the two
// directions consistent.
type Letterbox struct {
	// Scale is min(target/width, target/height).
	Scale float32
	// NewWidth and NewHeight are the scaled image dimensions before padding,
	// rounded to the nearest pixel.
	NewWidth  int
	NewHeight int
	// PadX and PadY are the left and top padding in network-input pixels.
	// They are kept as floats so that inverting the transform does not lose
	// the half-pixel from odd padding totals.
	PadX float32
	PadY float32
	// Target is the square network input side length.
	Target int
}

// ComputeLetterbox derives the letterbox parameters for fitting an image of
// the given dimensions into a target x target square without cropping.
//
// Arguments:
//   - width: Original image width, must be > 0.
//   - height: Original image height, must be > 0.
//   - target: Network input side length.
//
// Returns:
//   - Letterbox: The resize and padding parameters.
func ComputeLetterbox(width, height, target int) Letterbox {
	scale := min(float32(target)/float32(width), float32(target)/float32(height))
	newW := int(math.Round(float64(float32(width) * scale)))
	newH := int(math.Round(float64(float32(height) * scale)))

	return Letterbox{
		Scale:     scale,
		NewWidth:  newW,
		NewHeight: newH,
		PadX:      float32(target-newW) / 2,
		PadY:      float32(target-newH) / 2,
		Target:    target,
	}
}

// Apply maps a box from original-image coordinates into network-input
// coordinates.
func (l Letterbox) Apply(r Rect) Rect {
	return Rect{
		X1: r.X1*l.Scale + l.PadX,
		Y1: r.Y1*l.Scale + l.PadY,
		X2: r.X2*l.Scale + l.PadX,
		Y2: r.Y2*l.Scale + l.PadY,
	}
}

// Invert maps a box from network-input coordinates back into original-image
// coordinates by undoing the padding and scaling applied during
// preprocessing.
func (l Letterbox) Invert(r Rect) Rect {
	return Rect{
		X1: (r.X1 - l.PadX) / l.Scale,
		Y1: (r.Y1 - l.PadY) / l.Scale,
		X2: (r.X2 - l.PadX) / l.Scale,
		Y2: (r.Y2 - l.PadY) / l.Scale,
	}
}
