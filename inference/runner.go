// Package inference - ONNX Runtime session management.
package inference

import (
	"os"
	"runtime"

	"github.com/framewatch-ai/go-detect/models/model"
)

// Runner is the inference engine boundary: given the per-frame input
// tensors, it returns the model's named output tensors. The pipeline treats
// everything behind this interface as a black box; tests substitute a stub.
//
// A Run call blocks the calling goroutine for its full duration. Runners
// are safe for concurrent Run calls once constructed, matching the
// onnxruntime session contract.
type Runner interface {
	// Run executes one inference pass.
	//
	// Arguments:
	//   - inputs: Named input tensors; the runner binds them by name.
	//
	// Returns:
	//   - []model.Tensor: The named output tensors, copied out of native
	//     memory.
	//   - error: ErrInference-wrapped on an abnormal runtime return.
	Run(inputs []model.Tensor) ([]model.Tensor, error)

	// Close releases native resources. Safe to call more than once; only
	// the first call releases.
	Close() error
}

// SharedLibEnvVar overrides the onnxruntime shared library location.
const SharedLibEnvVar = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the platform-specific onnxruntime shared library
// path, honoring the environment override.
func GetSharedLibPath() string {
	if p := os.Getenv(SharedLibEnvVar); p != "" {
		return p
	}
	if runtime.GOOS == "windows" {
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime.dll"
		}
	}
	if runtime.GOOS == "darwin" {
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.dylib"
		}
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime_amd64.dylib"
		}
	}
	if runtime.GOOS == "linux" {
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
	return ""
}
