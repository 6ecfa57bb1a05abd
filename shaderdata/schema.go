package shaderdata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unsafe"
)

// Version identifies the block layout. Bump it whenever Fields change.
const Version = 1

// ErrLayoutMismatch is returned when a layout description disagrees with
// the Go struct or with a kernel source.
var ErrLayoutMismatch = errors.New("shaderdata: layout mismatch")

// Field describes one member of the block.
type Field struct {
	Name   string // WGSL member name
	Offset uintptr
	Size   uintptr
}

// Fields lists the block members in layout order.
var Fields = []Field{
	{Name: "size", Offset: 0, Size: 8},
	{Name: "sky_size", Offset: 8, Size: 8},
	{Name: "eye_tan_fov", Offset: 16, Size: 16},
	{Name: "look_at", Offset: 32, Size: 64},
}

// Validate checks Fields against the in-memory layout of Block: offsets,
// sizes, contiguity and the total size.
func Validate() error {
	var b Block
	actual := []Field{
		{"size", unsafe.Offsetof(b.Width), unsafe.Sizeof(b.Width) + unsafe.Sizeof(b.Height)},
		{"sky_size", unsafe.Offsetof(b.SkyWidth), unsafe.Sizeof(b.SkyWidth) + unsafe.Sizeof(b.SkyHeight)},
		{"eye_tan_fov", unsafe.Offsetof(b.EyeTanFov), unsafe.Sizeof(b.EyeTanFov)},
		{"look_at", unsafe.Offsetof(b.LookAt), unsafe.Sizeof(b.LookAt)},
	}
	if len(actual) != len(Fields) {
		return fmt.Errorf("%w: %d fields declared, struct has %d", ErrLayoutMismatch, len(Fields), len(actual))
	}
	var next uintptr
	for i, f := range Fields {
		if f != actual[i] {
			return fmt.Errorf("%w: field %d declared %+v, struct has %+v", ErrLayoutMismatch, i, f, actual[i])
		}
		if f.Offset != next {
			return fmt.Errorf("%w: gap before %s at offset %d", ErrLayoutMismatch, f.Name, f.Offset)
		}
		next = f.Offset + f.Size
	}
	if next != Size || unsafe.Sizeof(b) != Size {
		return fmt.Errorf("%w: block is %d bytes, want %d", ErrLayoutMismatch, unsafe.Sizeof(b), Size)
	}
	return nil
}

// LayoutTag returns a compact description of the layout, for example
//
//	v1 size@0:8 sky_size@8:8 eye_tan_fov@16:16 look_at@32:64
//
// Kernel sources carry it in a "// layout: <tag>" comment.
func LayoutTag() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d", Version)
	for _, f := range Fields {
		fmt.Fprintf(&sb, " %s@%d:%d", f.Name, f.Offset, f.Size)
	}
	return sb.String()
}

var layoutLine = regexp.MustCompile(`(?m)^\s*//\s*layout:\s*(.+?)\s*$`)

// CheckSource verifies that src declares the current layout tag.
func CheckSource(src string) error {
	m := layoutLine.FindStringSubmatch(src)
	if m == nil {
		return fmt.Errorf("%w: kernel source has no layout comment", ErrLayoutMismatch)
	}
	if m[1] != LayoutTag() {
		return fmt.Errorf("%w: kernel expects %q, host provides %q", ErrLayoutMismatch, m[1], LayoutTag())
	}
	return nil
}
