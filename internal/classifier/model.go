// Package classifier runs a pre-trained image classifier exported as a JSON
// artifact. The artifact is loaded once and is safe for concurrent use.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// Model is an immutable feed-forward network ending in a single score.
type Model struct {
	input     shape
	layers    []layer
	threshold float64
}

// DefaultThreshold is used when the artifact does not carry its own.
const DefaultThreshold = 0.5

type artifact struct {
	Input     []int           `json:"input"` // [height, width, channels]
	Threshold *float64        `json:"threshold"`
	Layers    []layerArtifact `json:"layers"`
}

type layerArtifact struct {
	Type       string          `json:"type"`
	Activation string          `json:"activation"`
	Kernel     json.RawMessage `json:"kernel"`
	Bias       []float64       `json:"bias"`
	Pool       int             `json:"pool"`
}

// ErrBadArtifact wraps every structural problem found while loading.
var ErrBadArtifact = errors.New("invalid classifier artifact")

// Load reads the artifact at path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classifier %q: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load classifier %q: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates an artifact.
func Parse(r io.Reader) (*Model, error) {
	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBadArtifact, err)
	}
	if len(a.Input) != 3 || a.Input[0] < 1 || a.Input[1] < 1 || a.Input[2] < 1 {
		return nil, fmt.Errorf("%w: input must be [height,width,channels], got %v", ErrBadArtifact, a.Input)
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrBadArtifact)
	}

	m := &Model{input: shape{a.Input[0], a.Input[1], a.Input[2]}, threshold: DefaultThreshold}
	if a.Threshold != nil {
		if t := *a.Threshold; t <= 0 || t >= 1 {
			return nil, fmt.Errorf("%w: threshold must be in (0,1), got %v", ErrBadArtifact, t)
		}
		m.threshold = *a.Threshold
	}
	cur := m.input
	for i, la := range a.Layers {
		l, err := buildLayer(la)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrBadArtifact, i, err)
		}
		if cur, err = l.outShape(cur); err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrBadArtifact, i, err)
		}
		m.layers = append(m.layers, l)
	}
	if cur.h*cur.w*cur.c != 1 {
		return nil, fmt.Errorf("%w: final layer emits %d values, want 1", ErrBadArtifact, cur.h*cur.w*cur.c)
	}
	return m, nil
}

func buildLayer(la layerArtifact) (layer, error) {
	switch la.Type {
	case "flatten":
		return flatten{}, nil
	case "maxpool2d":
		return &maxPool2D{size: la.Pool}, nil
	case "conv2d":
		act, err := parseActivation(la.Activation)
		if err != nil {
			return nil, err
		}
		var k [][][][]float64
		if err := json.Unmarshal(la.Kernel, &k); err != nil {
			return nil, fmt.Errorf("conv2d kernel: %w", err)
		}
		return newConv2D(k, la.Bias, act)
	case "dense":
		act, err := parseActivation(la.Activation)
		if err != nil {
			return nil, err
		}
		var k [][]float64
		if err := json.Unmarshal(la.Kernel, &k); err != nil {
			return nil, fmt.Errorf("dense kernel: %w", err)
		}
		return newDense(k, la.Bias, act)
	default:
		return nil, fmt.Errorf("unsupported layer type %q", la.Type)
	}
}

// InputSize reports the width and height images must be resized to.
func (m *Model) InputSize() (width, height int) {
	return m.input.w, m.input.h
}

// Threshold is the decision boundary the model was exported with. Scores
// strictly above it are positive.
func (m *Model) Threshold() float64 {
	return m.threshold
}

// Predict runs one forward pass and returns the scalar score.
func (m *Model) Predict(ctx context.Context, in Tensor) (float64, error) {
	if in.H != m.input.h || in.W != m.input.w || in.C != m.input.c || len(in.Data) != in.size() {
		return 0, fmt.Errorf("input tensor %s does not match model input %dx%dx%d",
			in.shapeString(), m.input.h, m.input.w, m.input.c)
	}
	cur := in
	for _, l := range m.layers {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cur = l.forward(cur)
	}
	return cur.Data[0], nil
}
