package onnx

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/model"
)

var (
	// ImageNetMean and ImageNetStd are the per-channel normalization
	// constants of most ImageNet-trained classifiers.
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

var (
	// ErrNoLabels is returned when the labels file has no entries.
	ErrNoLabels = errors.New("labels file is empty")

	// ErrLabelMismatch is returned when the model output size differs from
	// the number of labels.
	ErrLabelMismatch = errors.New("model output does not match labels")
)

// DefaultTopK is the number of predictions returned per image.
const DefaultTopK = 10

// LoadLabels reads one label per line. Blank lines and lines starting with
// '#' are skipped. Only the text before the first comma is kept, so
// "tabby, tabby cat" becomes "tabby".
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided labels path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, ","); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return labels, nil
}

// ToNCHW converts an HWC tensor into a 1x3xSxS planar buffer for a model
// that expects size x size input, sampling nearest pixels and applying
// per-channel mean and std. Single-channel tensors are replicated.
func ToNCHW(t model.Tensor, size int, mean, std [3]float32) ([]float32, error) {
	if !t.Valid() || size <= 0 {
		return nil, fmt.Errorf("invalid tensor %dx%dx%d for input size %d", t.Size, t.Size, t.Channels, size)
	}
	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		sy := y * t.Size / size
		for x := 0; x < size; x++ {
			sx := x * t.Size / size
			src := (sy*t.Size + sx) * t.Channels
			for c := 0; c < 3; c++ {
				v := t.Data[src]
				if t.Channels >= 3 {
					v = t.Data[src+c]
				}
				out[c*plane+y*size+x] = (v - mean[c]) / std[c]
			}
		}
	}
	return out, nil
}

// Softmax converts logits into probabilities.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		maxLogit = math.Max(maxLogit, float64(v))
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// TopK pairs probabilities with labels and returns the k most probable,
// highest first. Ties keep label order.
func TopK(probs []float64, labels []string, k int) ([]capability.Prediction, error) {
	if len(probs) != len(labels) {
		return nil, fmt.Errorf("%w: %d outputs, %d labels", ErrLabelMismatch, len(probs), len(labels))
	}
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if k > 0 && len(idx) > k {
		idx = idx[:k]
	}
	out := make([]capability.Prediction, len(idx))
	for i, j := range idx {
		out[i] = capability.Prediction{Label: labels[j], Confidence: probs[j]}
	}
	return out, nil
}
