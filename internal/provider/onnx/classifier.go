//go:build onnx

package onnx

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/model"
	ort "github.com/yalue/onnxruntime_go"
)

// Built reports whether the ONNX Runtime binding is compiled in.
const Built = true

// defaultInputSize is used when the model declares a dynamic input size.
const defaultInputSize = 224

var envOnce sync.Once
var envErr error

// Classifier runs a single-input, single-output classification model.
type Classifier struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	labels    []string
	inputSize int
}

// Load returns a loader that initializes ONNX Runtime and opens the model.
func Load(cfg config.ONNXConfig) capability.LoadFunc[capability.Classifier] {
	return func(context.Context) (capability.Classifier, error) {
		if cfg.ModelPath == "" {
			return nil, capability.ErrNotConfigured
		}
		c, err := NewClassifier(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// NewClassifier opens the model at cfg.ModelPath with the labels at
// cfg.LabelsPath.
func NewClassifier(cfg config.ONNXConfig) (*Classifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("onnx model: %w", err)
	}
	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("onnx labels: %w", err)
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]
	if len(in.Dimensions) != 4 {
		return nil, fmt.Errorf("expected 4D input, got %dD", len(in.Dimensions))
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{in.Name}, []string{out.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	size := defaultInputSize
	if h := in.Dimensions[2]; h > 0 {
		size = int(h)
	}
	return &Classifier{session: session, labels: labels, inputSize: size}, nil
}

// Classify runs the model on the tensor and returns the top predictions.
func (c *Classifier) Classify(_ context.Context, tensor model.Tensor) ([]capability.Prediction, error) {
	data, err := ToNCHW(tensor, c.inputSize, ImageNetMean, ImageNetStd)
	if err != nil {
		return nil, err
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(c.inputSize), int64(c.inputSize)), data)
	if err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, capability.ErrUnavailable
	}

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	return TopK(Softmax(t.GetData()), c.labels, DefaultTopK)
}

// Close releases the session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath == "" {
			libraryPath = findLibrary()
		}
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				envErr = fmt.Errorf("init onnx: %w", err)
			}
		}
	})
	return envErr
}

// findLibrary returns the first onnxruntime shared library found in the
// usual system locations, or "" to let the runtime use its default.
func findLibrary() string {
	var candidates []string
	switch runtime.GOOS {
	case "linux":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
		}
	case "darwin":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
		}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
