// Package images - Geometry shared by the preprocessing and decoding stages.
package images

// Rect is a lightweight bounding box in corner form.
//
// Coordinates are float32 because detector outputs are sub-pixel; rounding
// only happens when a caller converts to display coordinates.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the area of the box. Degenerate boxes have zero or negative
// width/height and therefore a non-positive area.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Empty reports whether the box has no positive extent in either dimension.
func (r Rect) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

// Clip clamps the box to the region [0,width] x [0,height].
//
// Arguments:
//   - width: The right edge of the clipping region.
//   - height: The bottom edge of the clipping region.
//
// Returns:
//   - Rect: The clipped box. May be degenerate if the input lies entirely
//     outside the region; callers should check Empty().
func (r Rect) Clip(width, height float32) Rect {
	return Rect{
		X1: max(r.X1, 0),
		Y1: max(r.Y1, 0),
		X2: min(r.X2, width),
		Y2: min(r.Y2, height),
	}
}

// Scale multiplies the box coordinates by independent per-axis factors.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// FromCenterSize builds a corner-form box from a center point and size, the
// form grid decoders produce before suppression.
func FromCenterSize(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Box is a bounding box in the output form consumed by rendering layers:
// top-left origin plus size, rather than two corners.
type Box struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// ToBox converts a corner-form Rect to the origin+size output form.
func (r Rect) ToBox() Box {
	return Box{X: r.X1, Y: r.Y1, Width: r.Width(), Height: r.Height()}
}

// CalculateIoU computes the Intersection over Union of two boxes.
//
// IoU is the ratio of the overlapping area to the combined area of the two
// boxes and is the similarity measure used by Non-Maximum Suppression:
//
//	IoU = Area(Intersection) / (Area(A) + Area(B) - Area(Intersection))
//
// The intersection corners are the max of the top-left corners and the min of
// the bottom-right corners; if either intersection dimension is zero or
// negative the boxes do not overlap and the IoU is exactly 0. Two identical
// boxes yield exactly 1.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float32: A value in [0,1] measuring the overlap.
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Inclusion-exclusion: Union(A, B) = Area(A) + Area(B) - Intersection(A, B).
	unionArea := r.Area() + o.Area() - interArea

	return interArea / unionArea
}
