package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type shape struct{ h, w, c int }

type layer interface {
	// outShape validates the incoming shape and reports the produced one.
	outShape(in shape) (shape, error)
	forward(in Tensor) Tensor
}

type activation func(float64) float64

func parseActivation(name string) (activation, error) {
	switch name {
	case "", "linear":
		return func(v float64) float64 { return v }, nil
	case "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "sigmoid":
		return sigmoid, nil
	case "tanh":
		return math.Tanh, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

// conv2d is a stride-1, valid-padding convolution with an HWIO kernel.
type conv2d struct {
	kh, kw, cin, cout int
	kernel            []float64 // flattened HWIO
	bias              []float64
	act               activation
}

func newConv2D(kernel [][][][]float64, bias []float64, act activation) (*conv2d, error) {
	if len(kernel) == 0 || len(kernel[0]) == 0 || len(kernel[0][0]) == 0 || len(kernel[0][0][0]) == 0 {
		return nil, errors.New("conv2d: empty kernel")
	}
	l := &conv2d{kh: len(kernel), kw: len(kernel[0]), cin: len(kernel[0][0]), cout: len(kernel[0][0][0]), act: act}
	l.kernel = make([]float64, 0, l.kh*l.kw*l.cin*l.cout)
	for _, row := range kernel {
		if len(row) != l.kw {
			return nil, errors.New("conv2d: ragged kernel width")
		}
		for _, col := range row {
			if len(col) != l.cin {
				return nil, errors.New("conv2d: ragged kernel input channels")
			}
			for _, outs := range col {
				if len(outs) != l.cout {
					return nil, errors.New("conv2d: ragged kernel output channels")
				}
				l.kernel = append(l.kernel, outs...)
			}
		}
	}
	if len(bias) != l.cout {
		return nil, fmt.Errorf("conv2d: bias has %d values, want %d", len(bias), l.cout)
	}
	l.bias = bias
	return l, nil
}

func (l *conv2d) outShape(in shape) (shape, error) {
	if in.c != l.cin {
		return shape{}, fmt.Errorf("conv2d: input has %d channels, kernel expects %d", in.c, l.cin)
	}
	if in.h < l.kh || in.w < l.kw {
		return shape{}, fmt.Errorf("conv2d: input %dx%d smaller than kernel %dx%d", in.h, in.w, l.kh, l.kw)
	}
	return shape{in.h - l.kh + 1, in.w - l.kw + 1, l.cout}, nil
}

func (l *conv2d) forward(in Tensor) Tensor {
	out := newTensor(in.H-l.kh+1, in.W-l.kw+1, l.cout)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			for o := 0; o < l.cout; o++ {
				sum := l.bias[o]
				for dy := 0; dy < l.kh; dy++ {
					for dx := 0; dx < l.kw; dx++ {
						base := ((dy*l.kw+dx)*l.cin)*l.cout + o
						for ci := 0; ci < l.cin; ci++ {
							sum += in.at(y+dy, x+dx, ci) * l.kernel[base+ci*l.cout]
						}
					}
				}
				out.set(y, x, o, l.act(sum))
			}
		}
	}
	return out
}

// maxPool2D uses a square window with stride equal to its size; trailing
// rows/columns that do not fill a window are dropped.
type maxPool2D struct {
	size int
}

func (l *maxPool2D) outShape(in shape) (shape, error) {
	if l.size < 1 {
		return shape{}, fmt.Errorf("maxpool2d: pool size %d", l.size)
	}
	if in.h < l.size || in.w < l.size {
		return shape{}, fmt.Errorf("maxpool2d: input %dx%d smaller than pool %d", in.h, in.w, l.size)
	}
	return shape{in.h / l.size, in.w / l.size, in.c}, nil
}

func (l *maxPool2D) forward(in Tensor) Tensor {
	out := newTensor(in.H/l.size, in.W/l.size, in.C)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			for c := 0; c < in.C; c++ {
				best := math.Inf(-1)
				for dy := 0; dy < l.size; dy++ {
					for dx := 0; dx < l.size; dx++ {
						best = math.Max(best, in.at(y*l.size+dy, x*l.size+dx, c))
					}
				}
				out.set(y, x, c, best)
			}
		}
	}
	return out
}

type flatten struct{}

func (flatten) outShape(in shape) (shape, error) {
	return shape{1, 1, in.h * in.w * in.c}, nil
}

func (flatten) forward(in Tensor) Tensor {
	return Tensor{H: 1, W: 1, C: in.size(), Data: in.Data}
}

// dense multiplies the flattened input by an (in x out) kernel.
type dense struct {
	kernel *mat.Dense
	bias   []float64
	act    activation
}

func newDense(kernel [][]float64, bias []float64, act activation) (*dense, error) {
	if len(kernel) == 0 || len(kernel[0]) == 0 {
		return nil, errors.New("dense: empty kernel")
	}
	in, out := len(kernel), len(kernel[0])
	data := make([]float64, 0, in*out)
	for _, row := range kernel {
		if len(row) != out {
			return nil, errors.New("dense: ragged kernel")
		}
		data = append(data, row...)
	}
	if len(bias) != out {
		return nil, fmt.Errorf("dense: bias has %d values, want %d", len(bias), out)
	}
	return &dense{kernel: mat.NewDense(in, out, data), bias: bias, act: act}, nil
}

func (l *dense) outShape(in shape) (shape, error) {
	rows, cols := l.kernel.Dims()
	if n := in.h * in.w * in.c; n != rows {
		return shape{}, fmt.Errorf("dense: input has %d values, kernel expects %d", n, rows)
	}
	return shape{1, 1, cols}, nil
}

func (l *dense) forward(in Tensor) Tensor {
	_, cols := l.kernel.Dims()
	x := mat.NewVecDense(len(in.Data), in.Data)
	var y mat.VecDense
	y.MulVec(l.kernel.T(), x)

	out := newTensor(1, 1, cols)
	for i := 0; i < cols; i++ {
		out.Data[i] = l.act(y.AtVec(i) + l.bias[i])
	}
	return out
}
