// Package detector - end-to-end detection orchestration.
package detector

import (
	"bytes"
	"context"
	"image"

	// Register the frame formats the pipeline accepts; the set matches the
	// extensions util.LoadDirectoryImageFiles admits.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/framewatch-ai/go-detect/inference"
	"github.com/framewatch-ai/go-detect/models"
	"github.com/framewatch-ai/go-detect/models/model"
	"github.com/framewatch-ai/go-detect/models/model/preprocess"
	"github.com/framewatch-ai/go-detect/models/postprocess"
	"github.com/framewatch-ai/go-detect/util"
)

// Detector runs the full pipeline for one loaded model: preprocess,
// inference, decode, suppress, label. It holds no per-frame state, so a
// single Detector serves concurrent callers.
type Detector struct {
	cfg          *model.Config
	model        model.Model
	runner       inference.Runner
	preprocessor *preprocess.Preprocessor
	logger       *zap.Logger
}

// New assembles a detector from a validated configuration and a ready
// inference runner. The decoding strategy is selected from the config name.
//
// Arguments:
//   - cfg: The validated model configuration.
//   - runner: The inference engine serving cfg's model.
//   - logger: Structured logger; nil means no logging.
//
// Returns:
//   - *Detector: The assembled pipeline.
//   - error: ErrConfiguration-wrapped for an unsupported model name.
func New(cfg *model.Config, runner inference.Runner, logger *zap.Logger) (*Detector, error) {
	m, err := models.NewModel(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		cfg:          cfg,
		model:        m,
		runner:       runner,
		preprocessor: preprocess.NewPreprocessor(cfg),
		logger:       logger,
	}, nil
}

// Load opens the model named by the configuration and assembles a detector
// around it. The caller owns the returned detector and must Close it.
func Load(cfg *model.Config, logger *zap.Logger) (*Detector, error) {
	session, err := inference.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	d, err := New(cfg, session, logger)
	if err != nil {
		session.Close()
		return nil, err
	}
	return d, nil
}

// Detect decodes an encoded frame and runs the pipeline on it.
//
// Arguments:
//   - ctx: Cancellation context, checked before work starts.
//   - data: A JPEG or PNG encoded image.
//
// Returns:
//   - []postprocess.Detection: Labeled detections in descending confidence
//     order.
//   - error: ErrInvalidImage-wrapped when the bytes do not decode;
//     downstream failures keep their pipeline-stage sentinel.
func (d *Detector) Detect(ctx context.Context, data []byte) ([]postprocess.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalidImage, "decoding image: %v", err)
	}
	return d.DetectImage(ctx, img)
}

// DetectImage runs the pipeline on an already decoded image.
//
// Arguments:
//   - ctx: Cancellation context, checked before work starts.
//   - img: The decoded frame.
//
// Returns:
//   - []postprocess.Detection: Labeled detections in descending confidence
//     order; empty when nothing clears the thresholds.
//   - error: The failing stage's sentinel (ErrInvalidImage, ErrInference or
//     ErrDecoding) with context.
func (d *Detector) DetectImage(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prep, err := d.preprocessor.Preprocess(img)
	if err != nil {
		return nil, err
	}

	inputs := []model.Tensor{prep.Input}
	if d.cfg.Inputs.Shape != "" {
		inputs = append(inputs, prep.Shape)
	}

	outputs, err := d.runner.Run(inputs)
	if err != nil {
		d.logger.Error("inference failed",
			zap.String("model", string(d.cfg.Name)),
			zap.Error(err))
		if errors.Is(err, model.ErrInference) {
			return nil, err
		}
		return nil, errors.Wrapf(model.ErrInference, "%v", err)
	}

	candidates, err := d.model.DecodeOutputs(outputs, prep.OriginalWidth, prep.OriginalHeight)
	if err != nil {
		return nil, err
	}

	kept := postprocess.Apply(candidates, &postprocess.NMSConfig{
		IoUThreshold: d.cfg.IoUThreshold,
		ClassAware:   true,
	})

	detections, err := postprocess.ToDetections(kept, d.cfg.Labels)
	if err != nil {
		return nil, errors.Wrapf(model.ErrDecoding, "%v", err)
	}

	d.logger.Debug("frame processed",
		zap.String("model", string(d.cfg.Name)),
		zap.Int("candidates", len(candidates)),
		zap.Int("detections", len(detections)))

	return detections, nil
}

// FrameResult pairs one input frame with its detections.
type FrameResult struct {
	// Path is the source file location.
	Path string `json:"path"`
	// Frame is the sequence number parsed from the file name.
	Frame int `json:"frame"`
	// Detections are the frame's labeled detections.
	Detections []postprocess.Detection `json:"detections"`
}

// DetectFrames runs the pipeline over a batch of frames sequentially, in
// frame order. Cancellation is observed between frames only; a frame that
// has started always finishes. Any frame failure aborts the batch.
//
// Arguments:
//   - ctx: Cancellation context.
//   - frames: The loaded frame files, already sorted by frame number.
//
// Returns:
//   - []FrameResult: One entry per processed frame, in input order.
//   - error: The first frame's failure, annotated with its path.
func (d *Detector) DetectFrames(ctx context.Context, frames []util.ImageFile) ([]FrameResult, error) {
	results := make([]FrameResult, 0, len(frames))
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		detections, err := d.Detect(ctx, frame.Data)
		if err != nil {
			return results, errors.Wrapf(err, "frame %s", frame.Path)
		}
		results = append(results, FrameResult{
			Path:       frame.Path,
			Frame:      frame.Frame,
			Detections: detections,
		})
	}
	return results, nil
}

// Options returns the detector's model configuration.
func (d *Detector) Options() *model.Config {
	return d.cfg
}

// Close releases the underlying inference runner.
func (d *Detector) Close() error {
	return d.runner.Close()
}
