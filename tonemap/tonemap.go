// Package tonemap converts the kernel's linear float output into 8-bit
// sRGB-ish pixels and writes PNG files.
//
// The mapping is a gamma-2 approximation, pixel = 255.99·sqrt(v), applied
// after clamping v to [0, 1].
package tonemap

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/gogpu/gg"
)

// ErrSize is returned when a pixel buffer does not match the image size.
var ErrSize = errors.New("tonemap: buffer size mismatch")

// Value maps one linear channel value to a byte.
func Value(v float32) uint8 {
	switch {
	case !(v > 0): // also catches NaN
		return 0
	case v >= 1:
		return 255
	}
	return uint8(255.99 * math.Sqrt(float64(v)))
}

// Encode converts linear RGBA floats (4 per pixel, row-major, top row
// first) into a new opaque image.
func Encode(linear []float32, width, height int) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := EncodeInto(dst, linear); err != nil {
		return nil, err
	}
	return dst, nil
}

// EncodeInto converts linear RGBA floats into dst, reusing its pixels.
func EncodeInto(dst *image.RGBA, linear []float32) error {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if len(linear) != w*h*4 {
		return fmt.Errorf("%w: %d floats for %dx%d", ErrSize, len(linear), w, h)
	}
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		src := linear[y*w*4 : (y+1)*w*4]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = Value(src[i+0])
			row[i+1] = Value(src[i+1])
			row[i+2] = Value(src[i+2])
			row[i+3] = 255
		}
	}
	return nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("tonemap: save %s: %w", path, err)
	}
	return nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	return dc.EncodePNG(w)
}
