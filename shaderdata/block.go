// Package shaderdata defines the fixed-layout parameter block shared between
// the host and the ray tracing kernel.
//
// The block is 96 bytes of little-endian float32 values:
//
//	offset  0  width, height          output image size in pixels
//	offset  8  sky width, sky height  sky map size in pixels
//	offset 16  eye.xyz, tan(fov/2)
//	offset 32  look-at 4x4, row i = (L_i, U_i, F_i, 0), row 3 = 0
//
// The kernel reads the look-at rows as the columns of a WGSL mat4x4<f32>.
// A Block is created once per session and mutated in place every frame.
package shaderdata

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/raytrace"
)

// Size is the encoded size of a Block in bytes.
const Size = 96

// ErrShortBuffer is returned when a buffer cannot hold a Block.
var ErrShortBuffer = errors.New("shaderdata: buffer too short")

// WGSLSource is the WGSL declaration of the ShaderData struct matching Block.
//
//go:embed assets/shader_data.wgsl
var WGSLSource string

// Block mirrors the kernel's ShaderData struct field for field.
type Block struct {
	Width     float32       // offset  0
	Height    float32       // offset  4
	SkyWidth  float32       // offset  8
	SkyHeight float32       // offset 12
	EyeTanFov [4]float32    // offset 16
	LookAt    [4][4]float32 // offset 32
}

// SetImage records the output and sky map dimensions.
func (b *Block) SetImage(width, height, skyWidth, skyHeight int) {
	b.Width = float32(width)
	b.Height = float32(height)
	b.SkyWidth = float32(skyWidth)
	b.SkyHeight = float32(skyHeight)
}

// SetCamera packs the eye position, tan(fov/2) and the orientation-only
// look-at basis. orient has L, U and F as columns, as returned by
// raytrace.LookAt3, so row i of orient becomes the first three floats of
// LookAt[i]. The fourth column and the fourth row are zero.
func (b *Block) SetCamera(eye raytrace.Vec3, orient raytrace.Mat3, tanHalfFOV float64) {
	b.EyeTanFov = [4]float32{float32(eye.X), float32(eye.Y), float32(eye.Z), float32(tanHalfFOV)}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b.LookAt[i][j] = float32(orient[i][j])
		}
		b.LookAt[i][3] = 0
	}
	b.LookAt[3] = [4]float32{}
}

// Eye returns the packed eye position.
func (b *Block) Eye() raytrace.Vec3 {
	return raytrace.V3(float64(b.EyeTanFov[0]), float64(b.EyeTanFov[1]), float64(b.EyeTanFov[2]))
}

// Orientation returns the packed 3x3 look-at basis.
func (b *Block) Orientation() raytrace.Mat3 {
	var m raytrace.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = float64(b.LookAt[i][j])
		}
	}
	return m
}

// floats returns the block as 24 consecutive values in layout order.
func (b *Block) floats() *[Size / 4]float32 {
	var f [Size / 4]float32
	f[0], f[1], f[2], f[3] = b.Width, b.Height, b.SkyWidth, b.SkyHeight
	copy(f[4:8], b.EyeTanFov[:])
	for i := 0; i < 4; i++ {
		copy(f[8+i*4:12+i*4], b.LookAt[i][:])
	}
	return &f
}

// Put encodes the block into dst, which must hold at least Size bytes.
func (b *Block) Put(dst []byte) error {
	if len(dst) < Size {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, Size, len(dst))
	}
	for i, v := range b.floats() {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return nil
}

// MarshalBinary encodes the block into a new Size-byte slice.
func (b *Block) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	if err := b.Put(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary decodes a block from data. Every bit pattern, including
// NaN payloads, is preserved.
func (b *Block) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, Size, len(data))
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	b.Width, b.Height, b.SkyWidth, b.SkyHeight = f(0), f(1), f(2), f(3)
	for i := range b.EyeTanFov {
		b.EyeTanFov[i] = f(4 + i)
	}
	for i := range b.LookAt {
		for j := range b.LookAt[i] {
			b.LookAt[i][j] = f(8 + i*4 + j)
		}
	}
	return nil
}
