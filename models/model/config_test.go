package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTinyYOLOv3Config() *Config {
	return &Config{
		Name:                ModelNameTinyYOLOv3,
		Family:              ModelFamilyYOLO,
		Path:                "model.onnx",
		Labels:              []string{"person", "bicycle", "car"},
		ImageSize:           416,
		ConfidenceThreshold: 0.25,
		IoUThreshold:        0.5,
		Inputs:              InputBindings{Image: "input_1", Shape: "image_shape"},
		Layers: []LayerConfig{
			{Outputs: OutputBindings{Boxes: "yolonms_layer_1", Scores: "yolonms_layer_1:1"}},
		},
	}
}

func validYOLOv4Config() *Config {
	anchors := [][2]float32{{12, 16}, {19, 36}, {40, 28}}
	return &Config{
		Name:                ModelNameYOLOv4,
		Family:              ModelFamilyYOLO,
		Path:                "model.onnx",
		Labels:              []string{"person", "bicycle", "car"},
		ImageSize:           416,
		ConfidenceThreshold: 0.25,
		IoUThreshold:        0.5,
		Inputs:              InputBindings{Image: "input_1:0"},
		Layers: []LayerConfig{
			{Outputs: OutputBindings{Boxes: "b0", Scores: "s0"}, Stride: 8, Anchors: anchors, XYScale: 1.2},
			{Outputs: OutputBindings{Boxes: "b1", Scores: "s1"}, Stride: 16, Anchors: anchors, XYScale: 1.1},
			{Outputs: OutputBindings{Boxes: "b2", Scores: "s2"}, Stride: 32, Anchors: anchors, XYScale: 1.05},
		},
	}
}

func TestValidateAcceptsWellFormedConfigs(t *testing.T) {
	require.NoError(t, validTinyYOLOv3Config().Validate())
	require.NoError(t, validYOLOv4Config().Validate())
}

// TestValidateRejectsDefects verifies fail-fast validation: every defect is
// reported as a configuration error before any model is loaded.
func TestValidateRejectsDefects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "unsupported model name",
			mutate: func(c *Config) { c.Name = "yolov9000" },
		},
		{
			name:   "missing model path",
			mutate: func(c *Config) { c.Path = "" },
		},
		{
			name:   "non-positive image size",
			mutate: func(c *Config) { c.ImageSize = 0 },
		},
		{
			name:   "confidence threshold above one",
			mutate: func(c *Config) { c.ConfidenceThreshold = 1.5 },
		},
		{
			name:   "negative IoU threshold",
			mutate: func(c *Config) { c.IoUThreshold = -0.1 },
		},
		{
			name:   "missing image input name",
			mutate: func(c *Config) { c.Inputs.Image = "" },
		},
		{
			name:   "empty label list",
			mutate: func(c *Config) { c.Labels = nil },
		},
		{
			name:   "missing shape input for direct-regression model",
			mutate: func(c *Config) { c.Inputs.Shape = "" },
		},
		{
			name:   "wrong layer count for direct-regression model",
			mutate: func(c *Config) { c.Layers = append(c.Layers, c.Layers[0]) },
		},
		{
			name:   "missing output names",
			mutate: func(c *Config) { c.Layers[0].Outputs.Scores = "" },
		},
		{
			name:   "zero display resolution",
			mutate: func(c *Config) { c.Display = &Display{Width: 0, Height: 720} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTinyYOLOv3Config()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestValidateRejectsGridDefects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "wrong layer count",
			mutate: func(c *Config) { c.Layers = c.Layers[:2] },
		},
		{
			name:   "stride does not divide image size",
			mutate: func(c *Config) { c.Layers[1].Stride = 100 },
		},
		{
			name:   "zero stride",
			mutate: func(c *Config) { c.Layers[0].Stride = 0 },
		},
		{
			name:   "missing anchors",
			mutate: func(c *Config) { c.Layers[2].Anchors = nil },
		},
		{
			name:   "non-positive xyscale",
			mutate: func(c *Config) { c.Layers[0].XYScale = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validYOLOv4Config()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestOutputNamesOrdering(t *testing.T) {
	cfg := validYOLOv4Config()
	assert.Equal(t, []string{"b0", "s0", "b1", "s1", "b2", "s2"}, cfg.OutputNames())
}

func TestInputNames(t *testing.T) {
	assert.Equal(t, []string{"input_1", "image_shape"}, validTinyYOLOv3Config().InputNames())
	assert.Equal(t, []string{"input_1:0"}, validYOLOv4Config().InputNames())
}

func TestInputShape(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 416, 416}, validTinyYOLOv3Config().InputShape())
	assert.Equal(t, []int64{1, 416, 416, 3}, validYOLOv4Config().InputShape())
}

// TestLoadConfig verifies the full load path: JSON parsing, relative path
// resolution against the config directory, and label loading.
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.onnx"), []byte("stub"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.txt"),
		[]byte("person\nbicycle\ncar\n"), 0o644))

	configJSON := `{
		"name": "tinyyolov3",
		"family": "yolo",
		"path": "model.onnx",
		"labelFile": "labels.txt",
		"imageSize": 416,
		"confidenceThreshold": 0.25,
		"iouThreshold": 0.5,
		"inputs": {"image": "input_1", "shape": "image_shape"},
		"layers": [
			{"outputs": {"boxes": "yolonms_layer_1", "scores": "yolonms_layer_1:1"}}
		]
	}`
	configPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(configJSON), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ModelNameTinyYOLOv3, cfg.Name)
	assert.Equal(t, filepath.Join(dir, "model.onnx"), cfg.Path)
	assert.Equal(t, []string{"person", "bicycle", "car"}, cfg.Labels)
	assert.Equal(t, 3, cfg.NumClasses())
	assert.Equal(t, LayoutUnknown, cfg.ScoreLayout)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.txt"), []byte("person\n"), 0o644))

	tests := []struct {
		name string
		json string
	}{
		{
			name: "malformed json",
			json: `{"name": "tinyyolov3",`,
		},
		{
			name: "missing label file reference",
			json: `{"name": "tinyyolov3", "path": "model.onnx"}`,
		},
		{
			name: "model file does not exist",
			json: `{
				"name": "tinyyolov3",
				"path": "missing.onnx",
				"labelFile": "labels.txt",
				"imageSize": 416,
				"inputs": {"image": "input_1", "shape": "image_shape"},
				"layers": [{"outputs": {"boxes": "b", "scores": "s"}}]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.json), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}
