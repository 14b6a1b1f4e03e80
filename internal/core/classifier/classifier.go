// Package classifier runs the ConvNeXt-tiny dermatology model through ONNX
// Runtime. The session and vocabulary are loaded once and are read-only;
// Classify is a pure function of the image bytes and the loaded weights.
package classifier

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"ai-derm-assistant/internal/core/faults"
	"ai-derm-assistant/internal/core/vocab"

	ort "github.com/yalue/onnxruntime_go"
)

// Config locates the model export and names its graph endpoints.
type Config struct {
	ModelPath  string
	OrtLibrary string
	InputSize  int
	InputName  string
	OutputName string
}

// Prediction is one (label, probability) pair from a top-k request.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float32 `json:"probability"`
}

// Result is the outcome of a single classification.
type Result struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Classifier holds the ONNX session and the label vocabulary.
type Classifier struct {
	session    *ort.DynamicAdvancedSession
	labels     vocab.Vocabulary
	inputSize  int
	inputName  string
	outputName string
}

// New initializes the ONNX Runtime environment (once per process) and opens
// an inference session over the exported model.
func New(cfg Config, labels vocab.Vocabulary) (*Classifier, error) {
	if len(labels) == 0 {
		return nil, faults.Config("classifier", "label vocabulary is empty", nil)
	}
	if cfg.InputSize <= 0 {
		return nil, faults.Config("classifier", "input size must be positive", nil)
	}
	if cfg.OrtLibrary != "" {
		ort.SetSharedLibraryPath(cfg.OrtLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, faults.Config("classifier", "onnxruntime init failed", err)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		nil,
	)
	if err != nil {
		return nil, faults.Config("classifier", "cannot open model "+cfg.ModelPath, err)
	}
	return &Classifier{
		session:    session,
		labels:     labels,
		inputSize:  cfg.InputSize,
		inputName:  cfg.InputName,
		outputName: cfg.OutputName,
	}, nil
}

// Close releases the ONNX session.
func (c *Classifier) Close() error {
	if c.session != nil {
		return c.session.Destroy()
	}
	return nil
}

// Labels returns the output vocabulary.
func (c *Classifier) Labels() vocab.Vocabulary { return c.labels }

// Classify decodes the image, runs inference and returns the arg-max label
// with its probability.
func (c *Classifier) Classify(ctx context.Context, r io.Reader) (Result, error) {
	preds, err := c.TopK(ctx, r, 1)
	if err != nil {
		return Result{}, err
	}
	return Result{Label: preds[0].Label, Confidence: preds[0].Probability}, nil
}

// TopK returns the k highest-probability labels in descending order. Ties
// break toward the lower vocabulary index so results are deterministic.
func (c *Classifier) TopK(ctx context.Context, r io.Reader, k int) ([]Prediction, error) {
	if k <= 0 || k > len(c.labels) {
		k = len(c.labels)
	}
	probs, err := c.probabilities(ctx, r)
	if err != nil {
		return nil, err
	}
	order := rankIndices(probs)
	preds := make([]Prediction, 0, k)
	for _, idx := range order[:k] {
		preds = append(preds, Prediction{Label: c.labels[idx], Probability: probs[idx]})
	}
	return preds, nil
}

func (c *Classifier) probabilities(ctx context.Context, r io.Reader) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := prepareTensorData(r, c.inputSize)
	if err != nil {
		return nil, err
	}
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(c.inputSize), int64(c.inputSize)), data)
	if err != nil {
		return nil, faults.Inference("classifier", err)
	}
	defer input.Destroy()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, faults.Inference("classifier", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, faults.Inference("classifier", fmt.Errorf("unexpected output type %T", outputs[0]))
	}
	defer out.Destroy()

	logits := out.GetData()
	if len(logits) != len(c.labels) {
		return nil, faults.Inference("classifier",
			fmt.Errorf("model emits %d logits for %d labels", len(logits), len(c.labels)))
	}
	return softmax(logits), nil
}

// softmax converts logits into a probability distribution (non-negative,
// summing to 1). The max is subtracted first for numeric stability.
func softmax(logits []float32) []float32 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	probs := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := float32(math.Exp(float64(v - max)))
		probs[i] = e
		sum += float64(e)
	}
	for i := range probs {
		probs[i] = float32(float64(probs[i]) / sum)
	}
	return probs
}

// rankIndices orders class indices by descending probability, with equal
// probabilities resolved toward the lower index.
func rankIndices(probs []float32) []int {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if probs[order[a]] != probs[order[b]] {
			return probs[order[a]] > probs[order[b]]
		}
		return order[a] < order[b]
	})
	return order
}
