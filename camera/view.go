package camera

import "github.com/gogpu/raytrace"

// ViewBasis is the orthonormal screen basis consumed by per-pixel ray
// generation. W points from the target back toward the eye, so a primary ray
// through screen coordinates (s, t) in [-1, 1] has direction
//
//	s·HalfWidth·U + t·HalfHeight·V - W
type ViewBasis struct {
	Eye        raytrace.Vec3
	U          raytrace.Vec3 // right
	V          raytrace.Vec3 // up
	W          raytrace.Vec3 // -front
	HalfHeight float64       // tan(fov/2)
	HalfWidth  float64       // HalfHeight·aspect
}

// DeriveViewBasis returns the screen basis for the current camera state.
func (c *Camera) DeriveViewBasis() ViewBasis {
	hh := c.TanHalfFOV()
	return ViewBasis{
		Eye:        c.Position,
		U:          c.right,
		V:          c.up,
		W:          c.front.Neg(),
		HalfHeight: hh,
		HalfWidth:  hh * c.Aspect,
	}
}

// RayDirection returns the normalized primary ray direction through screen
// coordinates s (right) and t (up), both in [-1, 1].
func (b ViewBasis) RayDirection(s, t float64) raytrace.Vec3 {
	d := b.U.Mul(s * b.HalfWidth).Add(b.V.Mul(t * b.HalfHeight)).Sub(b.W)
	return raytrace.Normalize(d)
}

// ViewMatrix returns the 4x4 look-at transform from world space into the
// camera's left/up/forward frame.
func (c *Camera) ViewMatrix() raytrace.Mat4 {
	return raytrace.LookAt(c.Position, c.Target(), c.up)
}

// Orientation3 returns the 3x3 look-at basis in the kernel layout:
// columns L, U and F, so row i is (L_i, U_i, F_i).
func (c *Camera) Orientation3() raytrace.Mat3 {
	return raytrace.LookAt3(c.Position, c.Target(), c.up)
}

// FocalScale returns f = 1/tan(fov/2) used by Perspective.
func (c *Camera) FocalScale() float64 {
	return 1 / c.TanHalfFOV()
}

// Project maps a world-space point to normalized device coordinates by
// applying the view transform and then Perspective. It returns false when
// the point is not in front of the near plane; the coordinates are then
// meaningless.
//
// The camera frame points L to the left, so a positive x' lies left of the
// image center.
func (c *Camera) Project(p raytrace.Vec3) (raytrace.Vec3, bool) {
	cs := c.ViewMatrix().MulPoint(p)
	if cs.Z <= c.Near {
		return raytrace.Vec3{}, false
	}
	return raytrace.Perspective(c.FocalScale(), c.Aspect, c.Near, c.Far, cs), true
}
