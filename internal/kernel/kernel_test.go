package kernel

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/naga"

	"github.com/gogpu/raytrace"
	"github.com/gogpu/raytrace/camera"
	"github.com/gogpu/raytrace/shaderdata"
	"github.com/gogpu/raytrace/skymap"
)

func TestWorkgroups(t *testing.T) {
	tests := []struct {
		w, h   int
		wx, wy uint32
	}{
		{800, 600, 100, 75},
		{512, 256, 64, 32},
		{7, 1, 1, 1},
		{9, 8, 2, 1},
		{1, 17, 1, 3},
	}
	for _, tt := range tests {
		wx, wy := Workgroups(tt.w, tt.h)
		if wx != tt.wx || wy != tt.wy {
			t.Errorf("Workgroups(%d, %d) = (%d, %d), want (%d, %d)", tt.w, tt.h, wx, wy, tt.wx, tt.wy)
		}
	}
}

func TestAssemble(t *testing.T) {
	src, err := Assemble(Source())
	if err != nil {
		t.Fatalf("Assemble(embedded) error = %v", err)
	}
	if !strings.HasPrefix(src, shaderdata.WGSLSource) {
		t.Error("assembled source should start with the ShaderData declaration")
	}
	if strings.Count(src, "struct ShaderData") != 1 {
		t.Error("ShaderData must be declared exactly once")
	}
	if !strings.Contains(src, "@workgroup_size(8, 8, 1)") {
		t.Error("kernel workgroup size does not match WorkgroupSize")
	}
}

func TestAssemble_LayoutMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no tag", "@compute @workgroup_size(1) fn main() {}"},
		{"old tag", "// layout: v0 size@0:8\n@compute @workgroup_size(1) fn main() {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.body)
			if !errors.Is(err, shaderdata.ErrLayoutMismatch) {
				t.Errorf("Assemble() error = %v, want ErrLayoutMismatch", err)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	src, err := Assemble(Source())
	if err != nil {
		t.Fatal(err)
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("compile kernel: %v", err)
	}
	words := bytesToWords(spirv)
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Fatalf("missing SPIR-V magic number")
	}
}

func TestBytesToWords(t *testing.T) {
	got := bytesToWords([]byte{0x03, 0x02, 0x23, 0x07, 0xff, 0, 0, 0x01, 0xaa})
	want := []uint32{0x07230203, 0x010000ff}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.wgsl")
	body := strings.Repeat("// padding line\n", 1000) + Source()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSource(path)
	if err != nil {
		t.Fatalf("LoadSource() error = %v", err)
	}
	if got != body {
		t.Error("LoadSource returned different content")
	}

	if _, err := LoadSource(filepath.Join(dir, "missing.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestLimits(t *testing.T) {
	l := Limits{
		Adapter:           "test",
		Workgroups:        [3]uint32{65535, 65535, 65535},
		GroupSize:         [3]uint32{256, 256, 64},
		MaxInvocations:    256,
		MaxStorageBinding: 128 << 20,
	}
	if err := l.Fits(1920, 1080); err != nil {
		t.Errorf("Fits(1920, 1080) = %v", err)
	}
	if err := l.Fits(4096, 4096); err == nil {
		t.Error("4096x4096 floats exceed 128 MiB")
	}
	if got := l.MaxImage(); got != 2048 {
		t.Errorf("MaxImage() = %d, want 2048", got)
	}

	small := Limits{Workgroups: [3]uint32{4, 4, 4}}
	if err := small.Fits(64, 64); err == nil {
		t.Error("64x64 needs 8 workgroups per dimension")
	}
	if err := (Limits{}).Fits(10000, 10000); err != nil {
		t.Errorf("zero limits should not reject: %v", err)
	}

	var sb strings.Builder
	if err := l.Write(&sb); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"adapter: test", "65535,65535,65535", "256,256,64", "invocations: 256"} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("report missing %q:\n%s", want, sb.String())
		}
	}
}

func testBlock(w, h int, sky *skymap.Image) *shaderdata.Block {
	cam := camera.New(raytrace.V3(0, 0, 20), raytrace.V3(0, 0, 0), raytrace.V3(0, 1, 0), 45,
		camera.WithAspect(float64(w)/float64(h)))
	var b shaderdata.Block
	b.SetImage(w, h, sky.Width, sky.Height)
	b.SetCamera(cam.Position, cam.Orientation3(), cam.TanHalfFOV())
	return &b
}

func TestPixel(t *testing.T) {
	sky := skymap.Checker(64, 32, 8)
	b := testBlock(64, 64, sky)

	// The center ray heads straight at the mass.
	if c := Pixel(b, sky, 32, 32); c != [3]float32{} {
		t.Errorf("center pixel = %v, want black", c)
	}

	// A corner ray misses and picks up sky or disk color.
	c := Pixel(b, sky, 0, 0)
	if c[0]+c[1]+c[2] == 0 {
		t.Error("corner pixel should not be black")
	}
	for i, v := range c {
		if v < 0 || v > 1 {
			t.Errorf("channel %d = %v out of range", i, v)
		}
	}
}

func TestPixel_NoSky(t *testing.T) {
	b := testBlock(16, 16, &skymap.Image{})
	// The corner ray escapes; with no sky it stays black.
	if c := Pixel(b, nil, 0, 0); c != [3]float32{} {
		t.Errorf("escaped ray without sky = %v, want black", c)
	}
}

func TestReference_Dispatch(t *testing.T) {
	sky := skymap.Checker(64, 32, 8)
	b := testBlock(21, 13, sky) // not a multiple of the workgroup size

	ref := NewReference(3)
	defer ref.Close()

	out, err := ref.Dispatch(b, sky)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 21*13*4 {
		t.Fatalf("len = %d, want %d", len(out), 21*13*4)
	}
	for y := 0; y < 13; y++ {
		for x := 0; x < 21; x++ {
			i := (y*21 + x) * 4
			if out[i+3] != 1 {
				t.Fatalf("pixel (%d,%d) alpha = %v, not written", x, y, out[i+3])
			}
			want := Pixel(b, sky, x, y)
			if out[i] != want[0] || out[i+1] != want[1] || out[i+2] != want[2] {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, out[i:i+3], want)
			}
		}
	}

	b.Width = 0
	if _, err := ref.Dispatch(b, sky); err == nil {
		t.Error("zero width should fail")
	}
}

func TestReference_Closed(t *testing.T) {
	sky := skymap.Checker(8, 4, 2)
	ref := NewReference(1)
	ref.Close()
	if _, err := ref.Dispatch(testBlock(8, 8, sky), sky); err == nil {
		t.Error("Dispatch on a closed reference should fail")
	}
}

func TestTracer_NotReady(t *testing.T) {
	tr := New()
	defer tr.Close()

	if _, err := tr.Dispatch(&shaderdata.Block{Width: 1, Height: 1}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Dispatch before Init = %v, want ErrNotReady", err)
	}
	if err := tr.UploadSky(skymap.Checker(4, 2, 2)); !errors.Is(err, ErrNotReady) {
		t.Errorf("UploadSky before Init = %v, want ErrNotReady", err)
	}
	if l := tr.Limits(); l != (Limits{}) {
		t.Errorf("Limits before Init = %+v, want zero", l)
	}
}

// TestTracer_MatchesReference needs a Vulkan adapter.
func TestTracer_MatchesReference(t *testing.T) {
	if testing.Short() {
		t.Skip("GPU test skipped in short mode")
	}
	tr := New()
	defer tr.Close()
	if err := tr.Init(); err != nil {
		t.Skipf("no GPU: %v", err)
	}

	sky := skymap.Checker(64, 32, 8)
	if err := tr.UploadSky(sky); err != nil {
		t.Fatal(err)
	}
	b := testBlock(24, 16, sky)
	got, err := tr.Dispatch(b)
	if err != nil {
		t.Fatal(err)
	}

	ref := NewReference(0)
	defer ref.Close()
	want, err := ref.Dispatch(b, sky)
	if err != nil {
		t.Fatal(err)
	}

	// Rays that graze the disk or the horizon may land on different sides
	// of a boundary; most pixels must agree closely.
	mismatch := 0
	for i := 0; i < len(want); i += 4 {
		for c := 0; c < 3; c++ {
			d := got[i+c] - want[i+c]
			if d > 0.02 || d < -0.02 {
				mismatch++
				break
			}
		}
	}
	if pixels := len(want) / 4; mismatch > pixels/20 {
		t.Errorf("%d of %d pixels differ from the reference", mismatch, pixels)
	}
}
