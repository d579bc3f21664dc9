package classifier

import "fmt"

// Tensor is a single image-shaped activation in HWC order. The batch
// dimension is implicit: every forward pass scores exactly one image.
type Tensor struct {
	H, W, C int
	Data    []float64
}

func newTensor(h, w, c int) Tensor {
	return Tensor{H: h, W: w, C: c, Data: make([]float64, h*w*c)}
}

func (t Tensor) at(y, x, ch int) float64 {
	return t.Data[(y*t.W+x)*t.C+ch]
}

func (t Tensor) set(y, x, ch int, v float64) {
	t.Data[(y*t.W+x)*t.C+ch] = v
}

func (t Tensor) size() int { return t.H * t.W * t.C }

func (t Tensor) shapeString() string {
	return fmt.Sprintf("%dx%dx%d", t.H, t.W, t.C)
}
