// Package skymap loads the equirectangular sky texture sampled by the ray
// tracing kernel.
//
// Images are decoded with the standard image codecs plus the
// golang.org/x/image decoders for WebP, BMP and TIFF, converted to
// non-premultiplied RGBA8 and optionally downsampled to fit GPU limits.
package skymap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp" // BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// ErrEmpty is returned for images without pixels.
var ErrEmpty = errors.New("skymap: empty image")

// Image is an RGBA8 sky map. Pix holds Width*Height*4 bytes, row-major,
// top row first.
type Image struct {
	Width  int
	Height int

	// SourceChannels is the channel count of the decoded file: 1 for gray,
	// 3 for YCbCr (JPEG), 4 otherwise. Pix always has 4.
	SourceChannels int

	// Format is the codec name reported by image.Decode, or "procedural".
	Format string

	Pix []byte
}

// Load decodes the sky map at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skymap: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("skymap: %s: %w", path, err)
	}
	return img, nil
}

// Decode reads any registered image format from r.
func Decode(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	m, err := FromImage(src)
	if err != nil {
		return nil, err
	}
	m.Format = format
	return m, nil
}

// FromImage converts src to an RGBA8 sky map.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{
		Width:          b.Dx(),
		Height:         b.Dy(),
		SourceChannels: channels(src.ColorModel()),
		Pix:            dst.Pix,
	}, nil
}

func channels(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.YCbCrModel:
		return 3
	default:
		return 4
	}
}

// NRGBA wraps the pixels as an image without copying.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Width * 4,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// ByteSize returns the size of the pixel data in bytes.
func (m *Image) ByteSize() int {
	return len(m.Pix)
}

// Fit returns m unchanged when it holds at most maxBytes of pixel data,
// or a copy downsampled with Catmull-Rom filtering so that it does. The
// aspect ratio is preserved until one side reaches a single pixel; the
// other side keeps halving after that. The result is never smaller than
// 1×1. maxBytes <= 0 disables the limit.
func (m *Image) Fit(maxBytes int) *Image {
	if maxBytes <= 0 || m.ByteSize() <= maxBytes {
		return m
	}
	w, h := m.Width, m.Height
	for w*h*4 > maxBytes && (w > 1 || h > 1) {
		if w > 1 {
			w = (w + 1) / 2
		}
		if h > 1 {
			h = (h + 1) / 2
		}
	}
	return m.Resize(w, h)
}

// Resize returns a copy scaled to w×h.
func (m *Image) Resize(w, h int) *Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), m.NRGBA(), m.NRGBA().Bounds(), xdraw.Src, nil)
	return &Image{
		Width:          w,
		Height:         h,
		SourceChannels: m.SourceChannels,
		Format:         m.Format,
		Pix:            dst.Pix,
	}
}

// Checker returns a procedural sky: a latitude/longitude grid of
// cells×cells/2 squares alternating between two blues, with a warm band at
// the horizon. It is used when no sky map file is configured.
func Checker(width, height, cells int) *Image {
	if cells < 2 {
		cells = 2
	}
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		cy := y * cells / 2 / max(height, 1)
		horizon := y*8/max(height, 1) == 4 || y*8/max(height, 1) == 3
		for x := 0; x < width; x++ {
			cx := x * cells / max(width, 1)
			c := [4]byte{30, 60, 140, 255}
			if (cx+cy)%2 == 0 {
				c = [4]byte{90, 140, 220, 255}
			}
			if horizon && (cx+cy)%2 == 0 {
				c = [4]byte{230, 160, 80, 255}
			}
			copy(pix[(y*width+x)*4:], c[:])
		}
	}
	return &Image{Width: width, Height: height, SourceChannels: 4, Format: "procedural", Pix: pix}
}

// Open loads the sky map at path, or builds a checkerW×checkerH procedural
// sky when path is empty, and fits the result into maxBytes.
func Open(path string, checkerW, checkerH, maxBytes int) (*Image, error) {
	var (
		m   *Image
		err error
	)
	if path == "" {
		m = Checker(checkerW, checkerH, 16)
	} else if m, err = Load(path); err != nil {
		return nil, err
	}
	if m.Width == 0 || m.Height == 0 {
		return nil, ErrEmpty
	}
	return m.Fit(maxBytes), nil
}
