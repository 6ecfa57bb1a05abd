// Package camera implements a first-person fly camera for the ray tracer.
//
// A Camera stores position, yaw, pitch, world-up and field of view, and
// derives an orthonormal front/right/up basis from them after every change.
// Two orientation policies are supported:
//
//   - PolicyEuler rebuilds the basis from yaw and pitch (the default).
//   - PolicyIncremental keeps an orientation matrix and composes a small
//     rotation onto it for every change. The matrix is never re-orthogonalized.
//
// The Controller turns polled cursor and key state into camera updates.
package camera

import (
	"math"

	"github.com/gogpu/raytrace"
)

// Pitch limits in degrees. Pitch never leaves [MinPitch, MaxPitch].
const (
	MinPitch = -89.0
	MaxPitch = 89.0
)

// Default clip planes and aspect ratio.
const (
	DefaultNear   = 0.1
	DefaultFar    = 1000.0
	DefaultAspect = 1.0
)

// Camera holds the state of a fly camera. Angles are in degrees.
//
// Position, WorldUp, FOV, Aspect, Near and Far may be assigned directly.
// Yaw and pitch are changed through Rotate or SetOrientation so that the
// derived basis stays in sync.
type Camera struct {
	Position raytrace.Vec3
	WorldUp  raytrace.Vec3
	FOV      float64 // vertical field of view in degrees
	Aspect   float64 // width / height
	Near     float64
	Far      float64

	yaw    float64
	pitch  float64
	policy Policy

	// orient maps camera-local axes to world axes for PolicyIncremental:
	// column 0 is right, column 1 is up, column 2 is -front.
	orient raytrace.Mat3

	front raytrace.Vec3
	right raytrace.Vec3
	up    raytrace.Vec3
}

// New creates a camera at eye looking toward center.
// Yaw and pitch are derived from the eye-to-center direction; pitch is
// clamped to [MinPitch, MaxPitch].
func New(eye, center, worldUp raytrace.Vec3, fov float64, opts ...Option) *Camera {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	yaw, pitch := anglesFromDirection(center.Sub(eye))
	c := &Camera{
		Position: eye,
		WorldUp:  worldUp,
		FOV:      fov,
		Aspect:   o.aspect,
		Near:     o.near,
		Far:      o.far,
		policy:   o.policy,
	}
	c.SetOrientation(yaw, pitch)
	return c
}

// anglesFromDirection returns the yaw and pitch in degrees that point an
// Euler camera along dir. A zero direction yields yaw -90 (looking down -z).
func anglesFromDirection(dir raytrace.Vec3) (yaw, pitch float64) {
	d := raytrace.Normalize(dir)
	if d.IsZero() {
		return -90, 0
	}
	yaw = raytrace.Degrees(math.Atan2(d.Z, d.X))
	pitch = raytrace.Degrees(math.Asin(clampUnit(d.Y)))
	return yaw, pitch
}

func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

// ClampPitch limits pitch to [MinPitch, MaxPitch].
func ClampPitch(pitch float64) float64 {
	return math.Max(MinPitch, math.Min(MaxPitch, pitch))
}

// Yaw returns the yaw angle in degrees.
func (c *Camera) Yaw() float64 { return c.yaw }

// Pitch returns the pitch angle in degrees.
func (c *Camera) Pitch() float64 { return c.pitch }

// Policy returns the orientation policy.
func (c *Camera) Policy() Policy { return c.policy }

// Front returns the unit view direction.
func (c *Camera) Front() raytrace.Vec3 { return c.front }

// Right returns the unit right vector.
func (c *Camera) Right() raytrace.Vec3 { return c.right }

// Up returns the unit up vector of the camera frame.
func (c *Camera) Up() raytrace.Vec3 { return c.up }

// SetOrientation sets absolute yaw and pitch and rebuilds the basis.
// For PolicyIncremental this also resets the orientation matrix.
func (c *Camera) SetOrientation(yaw, pitch float64) {
	c.yaw = yaw
	c.pitch = ClampPitch(pitch)
	c.rebuildEuler()
	if c.policy == PolicyIncremental {
		c.orient = raytrace.Mat3FromColumns(c.right, c.up, c.front.Neg())
	}
}

// Rotate adds yaw and pitch deltas in degrees. The resulting pitch is
// clamped; under PolicyIncremental only the clamped part of the pitch delta
// is composed onto the orientation matrix, and Pitch reports the elevation
// of the composed front vector.
func (c *Camera) Rotate(yawDelta, pitchDelta float64) {
	newPitch := ClampPitch(c.pitch + pitchDelta)
	pitchDelta = newPitch - c.pitch
	c.yaw += yawDelta
	c.pitch = newPitch

	switch c.policy {
	case PolicyIncremental:
		c.composeIncremental(yawDelta, pitchDelta)
	default:
		c.rebuildEuler()
	}
}

// Move translates the camera position by d.
func (c *Camera) Move(d raytrace.Vec3) {
	c.Position = c.Position.Add(d)
}

// Target returns the point one unit ahead of the camera.
func (c *Camera) Target() raytrace.Vec3 {
	return c.Position.Add(c.front)
}

// TanHalfFOV returns tan(fov/2), the half height of the image plane at
// unit distance.
func (c *Camera) TanHalfFOV() float64 {
	return math.Tan(raytrace.Radians(c.FOV) / 2)
}
