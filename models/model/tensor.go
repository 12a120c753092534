package model

import "fmt"

// Tensor is the interchange unit between the preprocessing, inference, and
// decoding stages: a named, dense float32 array with an explicit shape.
// Element type is float32 throughout the pipeline, matching the export
// contract of the supported models.
type Tensor struct {
	// Name binds the tensor to a graph input or output.
	Name string
	// Shape holds the dimensions, outermost first, e.g. [1, 3, 416, 416].
	Shape []int64
	// Data is the flattened row-major payload; len(Data) equals the product
	// of Shape.
	Data []float32
}

// NumElements returns the element count implied by the shape.
func (t Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// ShapeString renders the shape for diagnostics, e.g. "[1 3 416 416]".
func (t Tensor) ShapeString() string {
	return fmt.Sprintf("%v", t.Shape)
}

// FindTensor locates a tensor by name in a model output collection.
//
// Arguments:
//   - tensors: The collection to search.
//   - name: The configured tensor name to look up.
//
// Returns:
//   - *Tensor: The matching tensor, or nil if absent.
func FindTensor(tensors []Tensor, name string) *Tensor {
	for i := range tensors {
		if tensors[i].Name == name {
			return &tensors[i]
		}
	}
	return nil
}
