package kernel

import (
	"fmt"
	"io"

	"github.com/gogpu/gputypes"
)

// Limits reports the adapter and the compute limits that bound a render.
type Limits struct {
	Adapter    string
	Shared     bool // device owned by the window host
	Workgroups [3]uint32
	GroupSize  [3]uint32

	MaxInvocations    uint32
	MaxStorageBinding uint64
	MaxBufferSize     uint64
}

func limitsFrom(name string, shared bool, l gputypes.Limits) Limits {
	return Limits{
		Adapter: name,
		Shared:  shared,
		Workgroups: [3]uint32{
			l.MaxComputeWorkgroupsPerDimension,
			l.MaxComputeWorkgroupsPerDimension,
			l.MaxComputeWorkgroupsPerDimension,
		},
		GroupSize: [3]uint32{
			l.MaxComputeWorkgroupSizeX,
			l.MaxComputeWorkgroupSizeY,
			l.MaxComputeWorkgroupSizeZ,
		},
		MaxInvocations:    l.MaxComputeInvocationsPerWorkgroup,
		MaxStorageBinding: l.MaxStorageBufferBindingSize,
		MaxBufferSize:     l.MaxBufferSize,
	}
}

// MaxImage returns the largest square output the storage binding limit
// allows, in pixels per side.
func (l Limits) MaxImage() int {
	if l.MaxStorageBinding == 0 {
		return 0
	}
	side := 1
	for uint64(side*2)*uint64(side*2)*16 <= l.MaxStorageBinding {
		side *= 2
	}
	return side
}

// Fits reports whether a width×height render fits the limits.
func (l Limits) Fits(width, height int) error {
	x, y := Workgroups(width, height)
	if l.Workgroups[0] != 0 && (x > l.Workgroups[0] || y > l.Workgroups[1]) {
		return fmt.Errorf("kernel: %dx%d needs %dx%d workgroups, adapter allows %d per dimension",
			width, height, x, y, l.Workgroups[0])
	}
	if need := uint64(width) * uint64(height) * 16; l.MaxStorageBinding != 0 && need > l.MaxStorageBinding {
		return fmt.Errorf("kernel: %dx%d output needs %d bytes, storage binding limit is %d",
			width, height, need, l.MaxStorageBinding)
	}
	return nil
}

// Write prints the limits in the form of a short report.
func (l Limits) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"adapter: %s\nmax work group counts: %d,%d,%d\nmax local work group sizes: %d,%d,%d\nmax local invocations: %d\nmax storage binding: %d bytes\n",
		l.Adapter,
		l.Workgroups[0], l.Workgroups[1], l.Workgroups[2],
		l.GroupSize[0], l.GroupSize[1], l.GroupSize[2],
		l.MaxInvocations, l.MaxStorageBinding)
	return err
}
