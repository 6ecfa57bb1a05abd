package kernel

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/raytrace/internal/fileio"
	"github.com/gogpu/raytrace/shaderdata"
)

// EntryPoint is the compute entry point of every kernel.
const EntryPoint = "main"

// WorkgroupSize is the kernel's @workgroup_size in x and y.
const WorkgroupSize = 8

//go:embed shaders/raytrace.wgsl
var kernelSource string

// Source returns the embedded kernel body without the ShaderData prelude.
func Source() string { return kernelSource }

// LoadSource reads a kernel body from path.
func LoadSource(path string) (string, error) {
	b, err := fileio.ReadFile(path, fileio.DefaultBufferSize)
	if err != nil {
		return "", fmt.Errorf("kernel: %w", err)
	}
	return string(b), nil
}

// Assemble checks that body declares the current block layout and prepends
// the ShaderData declaration.
func Assemble(body string) (string, error) {
	if err := shaderdata.CheckSource(body); err != nil {
		return "", err
	}
	return shaderdata.WGSLSource + "\n" + body, nil
}

// Compile assembles body and compiles it to SPIR-V words.
func Compile(body string) ([]uint32, error) {
	src, err := Assemble(body)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("kernel: compile: %w", err)
	}
	return bytesToWords(spirv), nil
}

// bytesToWords converts little-endian SPIR-V bytes to 32-bit words.
func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// Workgroups returns the dispatch size covering width×height pixels.
func Workgroups(width, height int) (x, y uint32) {
	return uint32((width + WorkgroupSize - 1) / WorkgroupSize),
		uint32((height + WorkgroupSize - 1) / WorkgroupSize)
}
