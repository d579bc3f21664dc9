package classifier

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// DecodeFile opens and decodes a PNG or JPEG image.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Preprocess resizes img to width x height (bicubic), drops alpha and scales
// channels to [0,1], producing an HWC tensor with three channels. Colour
// values are taken unpremultiplied, so transparency does not darken them.
func Preprocess(img image.Image, width, height int) Tensor {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := newTensor(height, width, 3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := dst.PixOffset(x, y)
			t.set(y, x, 0, float64(dst.Pix[off])/255)
			t.set(y, x, 1, float64(dst.Pix[off+1])/255)
			t.set(y, x, 2, float64(dst.Pix[off+2])/255)
		}
	}
	return t
}
