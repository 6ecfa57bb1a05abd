package kernel

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/raytrace/internal/workgroup"
	"github.com/gogpu/raytrace/shaderdata"
	"github.com/gogpu/raytrace/skymap"
)

// Kernel constants shared with shaders/raytrace.wgsl.
const (
	refK         = float32(-1.5)
	refHorizon   = float32(1.0)
	refDiskInner = float32(2.5)
	refDiskOuter = float32(7.0)
	refMaxSteps  = 1000
)

type vec3f struct{ x, y, z float32 }

func (a vec3f) add(b vec3f) vec3f     { return vec3f{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3f) scale(s float32) vec3f { return vec3f{a.x * s, a.y * s, a.z * s} }
func (a vec3f) dot(b vec3f) float32   { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3f) length() float32       { return math32.Sqrt(a.dot(a)) }
func (a vec3f) mix(b vec3f, t float32) vec3f {
	return vec3f{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t, a.z + (b.z-a.z)*t}
}

func (a vec3f) cross(b vec3f) vec3f {
	return vec3f{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

func (a vec3f) normalize() vec3f {
	l := a.length()
	if l == 0 {
		return a
	}
	return a.scale(1 / l)
}

func clampf(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// Reference traces the image on the CPU in float32 with the same
// arithmetic as the GPU kernel. Workgroups of WorkgroupSize×WorkgroupSize
// pixels are spread over pool.
type Reference struct {
	pool *workgroup.Pool
}

// NewReference creates a CPU tracer with the given number of workers;
// workers <= 0 uses GOMAXPROCS.
func NewReference(workers int) *Reference {
	return &Reference{pool: workgroup.NewPool(workers)}
}

// Close stops the worker goroutines.
func (r *Reference) Close() { r.pool.Close() }

// Dispatch renders b against sky and returns linear RGBA floats, four per
// pixel, top row first.
func (r *Reference) Dispatch(b *shaderdata.Block, sky *skymap.Image) ([]float32, error) {
	w, h := int(b.Width), int(b.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("kernel: invalid image size %dx%d", w, h)
	}
	out := make([]float32, w*h*4)
	gx, gy := Workgroups(w, h)

	ok := r.pool.Dispatch(int(gx), int(gy), func(id workgroup.ID) {
		for ly := 0; ly < WorkgroupSize; ly++ {
			for lx := 0; lx < WorkgroupSize; lx++ {
				x := id.X*WorkgroupSize + lx
				y := id.Y*WorkgroupSize + ly
				if x >= w || y >= h {
					continue
				}
				c := Pixel(b, sky, x, y)
				i := (y*w + x) * 4
				out[i+0], out[i+1], out[i+2], out[i+3] = c[0], c[1], c[2], 1
			}
		}
	})
	if !ok {
		return nil, fmt.Errorf("kernel: reference tracer closed")
	}
	return out, nil
}

// Pixel traces the primary ray through pixel (x, y) and returns its linear
// RGB color.
func Pixel(b *shaderdata.Block, sky *skymap.Image, x, y int) [3]float32 {
	tanFov := b.EyeTanFov[3]
	aspect := b.Width / b.Height
	s := (2*(float32(x)+0.5)/b.Width - 1) * aspect * tanFov
	t := (1 - 2*(float32(y)+0.5)/b.Height) * tanFov

	local := vec3f{-s, t, 1}
	m := b.LookAt
	dir := vec3f{
		vec3f{m[0][0], m[0][1], m[0][2]}.dot(local),
		vec3f{m[1][0], m[1][1], m[1][2]}.dot(local),
		vec3f{m[2][0], m[2][1], m[2][2]}.dot(local),
	}.normalize()

	eye := vec3f{b.EyeTanFov[0], b.EyeTanFov[1], b.EyeTanFov[2]}
	c := trace(eye, dir, b, sky)
	return [3]float32{c.x, c.y, c.z}
}

func trace(eye, dir vec3f, b *shaderdata.Block, sky *skymap.Image) vec3f {
	p, v := eye, dir
	c := p.cross(v)
	h2 := c.dot(c)
	escape := eye.length() + 10

	for range refMaxSteps {
		r := p.length()
		if r < refHorizon {
			return vec3f{}
		}
		if r > escape {
			return sampleSky(v, b, sky)
		}
		h := clampf(0.02*r, 0.01, 1)
		a := p.scale(refK * h2 / math32.Pow(r, 5))
		v = v.add(a.scale(h))
		next := p.add(v.scale(h))
		if p.y*next.y < 0 {
			t := p.y / (p.y - next.y)
			rd := p.mix(next, t).length()
			if rd > refDiskInner && rd < refDiskOuter {
				return diskColor(rd)
			}
		}
		p = next
	}
	return sampleSky(v, b, sky)
}

func sampleSky(dir vec3f, b *shaderdata.Block, sky *skymap.Image) vec3f {
	sw, sh := b.SkyWidth, b.SkyHeight
	if sw < 1 || sh < 1 || sky == nil {
		return vec3f{}
	}
	d := dir.normalize()
	u := 0.5 + math32.Atan2(d.z, d.x)/(2*math32.Pi)
	v := 0.5 - math32.Asin(clampf(d.y, -1, 1))/math32.Pi
	x := int(clampf(u*sw, 0, sw-1))
	y := int(clampf(v*sh, 0, sh-1))
	i := (y*sky.Width + x) * 4
	if i+2 >= len(sky.Pix) {
		return vec3f{}
	}
	col := vec3f{float32(sky.Pix[i]), float32(sky.Pix[i+1]), float32(sky.Pix[i+2])}.scale(1.0 / 255)
	return vec3f{col.x * col.x, col.y * col.y, col.z * col.z}
}

func diskColor(r float32) vec3f {
	t := clampf((r-refDiskInner)/(refDiskOuter-refDiskInner), 0, 1)
	hot := vec3f{1, 0.85, 0.6}
	cool := vec3f{0.6, 0.15, 0.02}
	return hot.mix(cool, t)
}
