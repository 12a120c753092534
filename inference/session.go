package inference

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/framewatch-ai/go-detect/models/model"
)

var environmentOnce sync.Once

// initEnvironment initializes the shared onnxruntime environment. The
// environment is process-global, so this runs at most once regardless of how
// many sessions are created.
func initEnvironment() error {
	var initErr error
	environmentOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		libPath := GetSharedLibPath()
		if libPath == "" {
			initErr = errors.Wrap(model.ErrConfiguration,
				"no onnxruntime shared library for this platform; set "+SharedLibEnvVar)
			return
		}
		if _, err := os.Stat(libPath); err != nil {
			initErr = errors.Wrapf(model.ErrConfiguration,
				"onnxruntime shared library not found at %s", libPath)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = errors.Wrap(err, "initializing onnxruntime environment")
		}
	})
	return initErr
}

// Session runs a loaded ONNX model. It implements Runner on top of a dynamic
// onnxruntime session: input tensors are created per call and outputs are
// allocated by the runtime, so frames of any batch composition share one
// session.
type Session struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	closeOnce   sync.Once
	closeErr    error
}

// NewSession loads the ONNX model named by the configuration and prepares it
// for inference.
//
// The model's declared input and output metadata is inspected once here:
// every tensor name the configuration binds must exist in the model, and for
// architectures whose score tensor axis order varies between exports the
// layout is resolved from the declared dimensions and recorded on the
// configuration. Per-frame code never re-inspects the model.
//
// Arguments:
//   - cfg: A validated model configuration; its ScoreLayout field is set as
//     a side effect when the architecture requires it.
//
// Returns:
//   - *Session: The ready session.
//   - error: ErrConfiguration-wrapped on a missing library, unreadable
//     model, or name mismatch; ErrDecoding-wrapped when the score layout
//     cannot be resolved.
func NewSession(cfg *model.Config) (*Session, error) {
	if err := initEnvironment(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration,
			"reading model metadata from %s: %v", cfg.Path, err)
	}
	if err := checkBindings(cfg, inputs, outputs); err != nil {
		return nil, err
	}
	if cfg.Name == model.ModelNameYOLOv4 {
		if err := resolveLayout(cfg, outputs); err != nil {
			return nil, err
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(4)
	options.SetInterOpNumThreads(2)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	inputNames := cfg.InputNames()
	outputNames := cfg.OutputNames()
	session, err := ort.NewDynamicAdvancedSession(cfg.Path, inputNames, outputNames, options)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration,
			"creating session for %s: %v", cfg.Path, err)
	}

	s := &Session{
		session:     session,
		inputNames:  inputNames,
		outputNames: outputNames,
	}

	if cfg.Warmup > 0 {
		if err := s.warmup(cfg); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// checkBindings verifies that every tensor name the configuration binds
// exists in the model's declared inputs and outputs.
func checkBindings(cfg *model.Config, inputs, outputs []ort.InputOutputInfo) error {
	declared := make(map[string]bool, len(inputs)+len(outputs))
	for _, info := range inputs {
		declared[info.Name] = true
	}
	for _, name := range cfg.InputNames() {
		if !declared[name] {
			return errors.Wrapf(model.ErrConfiguration,
				"model %s declares no input named %q", cfg.Path, name)
		}
	}
	declared = make(map[string]bool, len(outputs))
	for _, info := range outputs {
		declared[info.Name] = true
	}
	for _, name := range cfg.OutputNames() {
		if !declared[name] {
			return errors.Wrapf(model.ErrConfiguration,
				"model %s declares no output named %q", cfg.Path, name)
		}
	}
	return nil
}

// resolveLayout fixes the score tensor axis order from the first layer's
// declared output dimensions and records it on the configuration.
func resolveLayout(cfg *model.Config, outputs []ort.InputOutputInfo) error {
	scoresName := cfg.Layers[0].Outputs.Scores
	for _, info := range outputs {
		if info.Name != scoresName {
			continue
		}
		layout, err := model.ResolveScoreLayout(info.Dimensions, cfg.NumClasses())
		if err != nil {
			return errors.Wrapf(err, "output %q", scoresName)
		}
		cfg.ScoreLayout = layout
		return nil
	}
	return errors.Wrapf(model.ErrConfiguration,
		"model %s declares no output named %q", cfg.Path, scoresName)
}

// warmup exercises the session with zeroed inputs so first-frame latency
// reflects steady state.
func (s *Session) warmup(cfg *model.Config) error {
	for i := 0; i < cfg.Warmup; i++ {
		inputs := make([]model.Tensor, 0, 2)
		inputs = append(inputs, model.Tensor{
			Name:  cfg.Inputs.Image,
			Shape: cfg.InputShape(),
			Data:  make([]float32, cfg.InputVolume()),
		})
		if cfg.Inputs.Shape != "" {
			inputs = append(inputs, model.Tensor{
				Name:  cfg.Inputs.Shape,
				Shape: []int64{1, 2},
				Data:  []float32{float32(cfg.ImageSize), float32(cfg.ImageSize)},
			})
		}
		if _, err := s.Run(inputs); err != nil {
			return errors.Wrapf(err, "warmup run %d", i)
		}
	}
	return nil
}

// Run executes one inference pass.
//
// Inputs are matched to the session's bound input names; every bound name
// must be present. Output tensors are allocated by the runtime and their
// contents copied into Go-owned slices before the native memory is released,
// so returned tensors have no lifetime coupling to the session.
//
// Arguments:
//   - inputs: The named input tensors for this frame.
//
// Returns:
//   - []model.Tensor: One tensor per bound output name, in binding order.
//   - error: ErrInference-wrapped on a missing input or runtime failure.
func (s *Session) Run(inputs []model.Tensor) ([]model.Tensor, error) {
	ortInputs := make([]ort.Value, len(s.inputNames))
	defer func() {
		for _, v := range ortInputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	for i, name := range s.inputNames {
		t := model.FindTensor(inputs, name)
		if t == nil {
			return nil, errors.Wrapf(model.ErrInference, "missing input tensor %q", name)
		}
		value, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
		if err != nil {
			return nil, errors.Wrapf(model.ErrInference, "creating input %q: %v", name, err)
		}
		ortInputs[i] = value
	}

	// Nil entries let the runtime allocate outputs at whatever shape the
	// model produces; we own them afterwards.
	ortOutputs := make([]ort.Value, len(s.outputNames))
	defer func() {
		for _, v := range ortOutputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	if err := s.session.Run(ortInputs, ortOutputs); err != nil {
		return nil, errors.Wrapf(model.ErrInference, "session run: %v", err)
	}

	results := make([]model.Tensor, len(s.outputNames))
	for i, name := range s.outputNames {
		tensor, ok := ortOutputs[i].(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Wrapf(model.ErrInference,
				"output %q is not a float32 tensor", name)
		}
		shape := tensor.GetShape()
		data := make([]float32, len(tensor.GetData()))
		copy(data, tensor.GetData())
		results[i] = model.Tensor{
			Name:  name,
			Shape: append([]int64(nil), shape...),
			Data:  data,
		}
	}

	return results, nil
}

// Close releases the native session. Subsequent calls return the first
// result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.session != nil {
			s.closeErr = s.session.Destroy()
		}
	})
	return s.closeErr
}
