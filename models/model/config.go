package model

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/util"
)

// InputBindings names the graph inputs fed per frame. Every supported model
// takes an image tensor; models whose decoding happens inside the graph also
// take the original image dimensions as a second runtime input.
type InputBindings struct {
	// Image is the name of the preprocessed image tensor input.
	Image string `json:"image" yaml:"image"`
	// Shape is the name of the [1,2] (height, width) tensor input. Empty for
	// models that do not consume it.
	Shape string `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// OutputBindings names one (boxes, scores) output pair.
type OutputBindings struct {
	Boxes  string `json:"boxes" yaml:"boxes"`
	Scores string `json:"scores" yaml:"scores"`
}

// LayerConfig holds the per-detection-layer constants of an anchor-based
// model. Direct-regression models have exactly one layer with no anchor
// constants; grid models have one entry per output scale.
type LayerConfig struct {
	// Outputs binds this layer's boxes and scores tensors.
	Outputs OutputBindings `json:"outputs" yaml:"outputs"`
	// Stride is the downsampling factor of this layer's grid (8, 16 or 32).
	Stride int `json:"stride,omitempty" yaml:"stride,omitempty"`
	// Anchors are the (width, height) prior box pairs for this layer, in
	// network-input pixels.
	Anchors [][2]float32 `json:"anchors,omitempty" yaml:"anchors,omitempty"`
	// XYScale is the center-coordinate correction factor for this layer.
	XYScale float32 `json:"xyscale,omitempty" yaml:"xyscale,omitempty"`
}

// Display is an optional fixed output resolution. When set, detection boxes
// are scaled into this space instead of original-image pixels.
type Display struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Config is the static model configuration, loaded once at startup and
// treated as immutable afterwards. It is shared by reference into the
// decoder and never mutated post-load.
type Config struct {
	// Name selects the decoding strategy.
	Name Name `json:"name" yaml:"name"`
	// Family groups related architectures.
	Family Family `json:"family" yaml:"family"`
	// Path is the ONNX model file location.
	Path string `json:"path" yaml:"path"`
	// LabelFile is a plain text file with one label per line; the 0-based
	// line index is the class id. The ordering is a bit-exact contract with
	// the trained model and is never re-sorted or deduplicated.
	LabelFile string `json:"labelFile" yaml:"labelFile"`
	// Labels is the ordered label list loaded from LabelFile.
	Labels []string `json:"-" yaml:"-"`
	// ImageSize is the square network input side length, e.g. 416.
	ImageSize int `json:"imageSize" yaml:"imageSize"`
	// ConfidenceThreshold rejects candidates whose best class score is
	// strictly below it. Range [0,1].
	ConfidenceThreshold float32 `json:"confidenceThreshold" yaml:"confidenceThreshold"`
	// IoUThreshold is the suppression overlap threshold. Range [0,1].
	IoUThreshold float32 `json:"iouThreshold" yaml:"iouThreshold"`
	// Inputs binds the graph input tensor names.
	Inputs InputBindings `json:"inputs" yaml:"inputs"`
	// Layers binds the output tensors, one entry per detection layer.
	Layers []LayerConfig `json:"layers" yaml:"layers"`
	// Display optionally rescales output boxes to a fixed resolution.
	// Zero means original-image pixels.
	Display *Display `json:"display,omitempty" yaml:"display,omitempty"`
	// Warmup is the number of inference runs performed at startup.
	Warmup int `json:"warmup,omitempty" yaml:"warmup,omitempty"`

	// ScoreLayout is resolved from the model's declared output metadata when
	// the session is created. Only anchor-based variants consult it.
	ScoreLayout TensorLayout `json:"-" yaml:"-"`
}

// NumClasses returns the label count.
func (c *Config) NumClasses() int {
	return len(c.Labels)
}

// OutputNames returns every configured output tensor name in layer order,
// boxes before scores within each layer.
func (c *Config) OutputNames() []string {
	names := make([]string, 0, 2*len(c.Layers))
	for _, layer := range c.Layers {
		names = append(names, layer.Outputs.Boxes, layer.Outputs.Scores)
	}
	return names
}

// InputShape returns the image input tensor dimensions. The channel axis
// position follows the architecture: direct-regression exports take
// channel-first input, the anchor-based exports take channel-last.
func (c *Config) InputShape() []int64 {
	size := int64(c.ImageSize)
	if c.Name == ModelNameYOLOv4 {
		return []int64{1, size, size, 3}
	}
	return []int64{1, 3, size, size}
}

// InputVolume returns the element count of the image input tensor.
func (c *Config) InputVolume() int {
	return 3 * c.ImageSize * c.ImageSize
}

// InputNames returns the configured input tensor names, image first.
func (c *Config) InputNames() []string {
	names := []string{c.Inputs.Image}
	if c.Inputs.Shape != "" {
		names = append(names, c.Inputs.Shape)
	}
	return names
}

// Validate checks the configuration and fails fast on the first problem.
// A config that does not validate must never reach the session layer.
//
// Returns:
//   - error: nil, or ErrConfiguration wrapped with the specific defect.
func (c *Config) Validate() error {
	switch c.Name {
	case ModelNameTinyYOLOv3, ModelNameYOLOv4:
	default:
		return errors.Wrapf(ErrConfiguration, "unsupported model name %q", c.Name)
	}
	if c.Path == "" {
		return errors.Wrap(ErrConfiguration, "model path is required")
	}
	if c.ImageSize <= 0 {
		return errors.Wrapf(ErrConfiguration, "image size must be positive, got %d", c.ImageSize)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Wrapf(ErrConfiguration,
			"confidence threshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return errors.Wrapf(ErrConfiguration,
			"IoU threshold must be in [0,1], got %v", c.IoUThreshold)
	}
	if c.Inputs.Image == "" {
		return errors.Wrap(ErrConfiguration, "image input tensor name is required")
	}
	if len(c.Labels) == 0 {
		return errors.Wrap(ErrConfiguration, "label list is empty")
	}

	switch c.Name {
	case ModelNameTinyYOLOv3:
		if len(c.Layers) != 1 {
			return errors.Wrapf(ErrConfiguration,
				"tinyyolov3 requires exactly one output layer, got %d", len(c.Layers))
		}
		if c.Inputs.Shape == "" {
			return errors.Wrap(ErrConfiguration, "tinyyolov3 requires a shape input tensor name")
		}
	case ModelNameYOLOv4:
		if len(c.Layers) != 3 {
			return errors.Wrapf(ErrConfiguration,
				"yolov4 requires exactly three output layers, got %d", len(c.Layers))
		}
		for i, layer := range c.Layers {
			if layer.Stride <= 0 {
				return errors.Wrapf(ErrConfiguration, "layer %d: stride must be positive", i)
			}
			if c.ImageSize%layer.Stride != 0 {
				return errors.Wrapf(ErrConfiguration,
					"layer %d: stride %d does not divide image size %d", i, layer.Stride, c.ImageSize)
			}
			if len(layer.Anchors) == 0 {
				return errors.Wrapf(ErrConfiguration, "layer %d: anchors are required", i)
			}
			if layer.XYScale <= 0 {
				return errors.Wrapf(ErrConfiguration, "layer %d: xyscale must be positive", i)
			}
		}
	}

	for i, layer := range c.Layers {
		if layer.Outputs.Boxes == "" || layer.Outputs.Scores == "" {
			return errors.Wrapf(ErrConfiguration,
				"layer %d: boxes and scores output names are required", i)
		}
	}

	if c.Display != nil && (c.Display.Width <= 0 || c.Display.Height <= 0) {
		return errors.Wrapf(ErrConfiguration,
			"display resolution must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}

	return nil
}

// LoadConfig reads a model configuration from a JSON file, loads the label
// file referenced by it, and validates the result. Any defect fails the
// whole load; there is no partially usable configuration.
//
// Relative model and label paths are resolved against the config file's
// directory.
//
// Arguments:
//   - path: The JSON config file location.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: ErrConfiguration-wrapped on any defect.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "reading config %s: %v", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "parsing config %s: %v", path, err)
	}

	dir := filepath.Dir(path)
	if cfg.Path != "" && !filepath.IsAbs(cfg.Path) {
		cfg.Path = filepath.Join(dir, cfg.Path)
	}
	if cfg.LabelFile != "" && !filepath.IsAbs(cfg.LabelFile) {
		cfg.LabelFile = filepath.Join(dir, cfg.LabelFile)
	}

	if cfg.LabelFile == "" {
		return nil, errors.Wrap(ErrConfiguration, "label file is required")
	}
	labels, err := util.LoadLabels(cfg.LabelFile)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "loading labels from %s: %v", cfg.LabelFile, err)
	}
	cfg.Labels = labels

	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "model file %s: %v", cfg.Path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
