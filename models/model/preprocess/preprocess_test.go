package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewatch-ai/go-detect/models/model"
)

func testConfig(name model.Name) *model.Config {
	return &model.Config{
		Name:      name,
		ImageSize: 416,
		Inputs:    model.InputBindings{Image: "input_1", Shape: "image_shape"},
	}
}

func uniformImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// TestPreprocessTensorShapes verifies the channel order convention per
// architecture: channel-first for the direct-regression variant,
// channel-last for the grid variant.
func TestPreprocessTensorShapes(t *testing.T) {
	tests := []struct {
		name     string
		model    model.Name
		expected []int64
	}{
		{name: "direct regression uses CHW", model: model.ModelNameTinyYOLOv3, expected: []int64{1, 3, 416, 416}},
		{name: "grid variant uses HWC", model: model.ModelNameYOLOv4, expected: []int64{1, 416, 416, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreprocessor(testConfig(tt.model))
			result, err := p.Preprocess(uniformImage(100, 100, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
			require.NoError(t, err)

			assert.Equal(t, tt.expected, result.Input.Shape)
			assert.Equal(t, "input_1", result.Input.Name)
			assert.Len(t, result.Input.Data, 3*416*416)
		})
	}
}

// TestPreprocessNormalization verifies that pixel values land in [0,1]: a
// white source pixel becomes exactly 1.0 and the black padding stays 0.0.
func TestPreprocessNormalization(t *testing.T) {
	p := NewPreprocessor(testConfig(model.ModelNameTinyYOLOv3))

	// Wide white image: vertical padding above and below the scaled region.
	result, err := p.Preprocess(uniformImage(200, 100, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	require.NoError(t, err)

	for _, v := range result.Input.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	// Center of the canvas lies inside the scaled image: white.
	center := 208*416 + 208
	assert.InDelta(t, 1.0, result.Input.Data[center], 1e-6)

	// Top-left corner lies in the padding band: black.
	assert.InDelta(t, 0.0, result.Input.Data[0], 1e-6)
}

// TestPreprocessShapeTensor verifies the (height, width) runtime input fed
// to models that decode coordinates in-graph.
func TestPreprocessShapeTensor(t *testing.T) {
	p := NewPreprocessor(testConfig(model.ModelNameTinyYOLOv3))

	result, err := p.Preprocess(uniformImage(1280, 720, color.RGBA{A: 255}))
	require.NoError(t, err)

	assert.Equal(t, "image_shape", result.Shape.Name)
	assert.Equal(t, []int64{1, 2}, result.Shape.Shape)
	assert.Equal(t, []float32{720, 1280}, result.Shape.Data)

	assert.Equal(t, 1280, result.OriginalWidth)
	assert.Equal(t, 720, result.OriginalHeight)
	assert.InDelta(t, 416.0/1280.0, result.Letterbox.Scale, 1e-6)
}

// TestPreprocessHWCInterleaving verifies that channel-last output interleaves
// R, G, B per pixel rather than storing planes.
func TestPreprocessHWCInterleaving(t *testing.T) {
	p := NewPreprocessor(testConfig(model.ModelNameYOLOv4))

	// Pure red square: R channel 1, G and B 0, everywhere (no padding).
	result, err := p.Preprocess(uniformImage(416, 416, color.RGBA{R: 255, A: 255}))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Input.Data[0], 1e-6)
	assert.InDelta(t, 0.0, result.Input.Data[1], 1e-6)
	assert.InDelta(t, 0.0, result.Input.Data[2], 1e-6)
	assert.InDelta(t, 1.0, result.Input.Data[3], 1e-6)
}

func TestPreprocessInvalidImage(t *testing.T) {
	p := NewPreprocessor(testConfig(model.ModelNameTinyYOLOv3))

	tests := []struct {
		name string
		img  image.Image
	}{
		{name: "nil image", img: nil},
		{name: "zero width", img: image.NewRGBA(image.Rect(0, 0, 0, 100))},
		{name: "zero height", img: image.NewRGBA(image.Rect(0, 0, 100, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Preprocess(tt.img)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidImage))
		})
	}
}

// TestPreprocessDeterministic verifies byte-identical tensors for identical
// input pixels.
func TestPreprocessDeterministic(t *testing.T) {
	p := NewPreprocessor(testConfig(model.ModelNameTinyYOLOv3))
	img := uniformImage(320, 240, color.RGBA{R: 30, G: 144, B: 255, A: 255})

	first, err := p.Preprocess(img)
	require.NoError(t, err)
	second, err := p.Preprocess(img)
	require.NoError(t, err)

	assert.Equal(t, first.Input.Data, second.Input.Data)
}
