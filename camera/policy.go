package camera

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/raytrace"
)

// Policy selects how the camera orientation is updated.
type Policy int

const (
	// PolicyEuler recomputes front/right/up from yaw and pitch on every
	// change. Only the two angles persist, so there is no drift.
	PolicyEuler Policy = iota

	// PolicyIncremental keeps an orientation matrix and right-multiplies it
	// by a rotation built from each yaw/pitch delta.
	PolicyIncremental
)

// String returns the config name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyEuler:
		return "euler"
	case PolicyIncremental:
		return "incremental"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a config name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "euler":
		return PolicyEuler, nil
	case "incremental":
		return PolicyIncremental, nil
	default:
		return PolicyEuler, fmt.Errorf("camera: unknown policy %q", s)
	}
}

// rebuildEuler derives the basis from yaw and pitch:
//
//	front = normalize(cos(pitch)·cos(yaw), sin(pitch), cos(pitch)·sin(yaw))
//	right = normalize(cross(front, worldUp))
//	up    = normalize(cross(right, front))
func (c *Camera) rebuildEuler() {
	sy, cy := math.Sincos(raytrace.Radians(c.yaw))
	sp, cp := math.Sincos(raytrace.Radians(c.pitch))
	c.front = raytrace.Normalize(raytrace.V3(cp*cy, sp, cp*sy))
	c.right = raytrace.Normalize(c.front.Cross(c.WorldUp))
	c.up = raytrace.Normalize(c.right.Cross(c.front))
}

// composeIncremental applies orient = Ry(yaw)·orient·Rx(pitch). Yaw turns
// about world Y, which leaves the elevation of front unchanged; pitch turns
// about the camera's own right axis. The stored pitch is re-read from front
// so the clamp in Rotate always sees the real elevation.
func (c *Camera) composeIncremental(yawDelta, pitchDelta float64) {
	yaw := raytrace.RotationMatrix(raytrace.Radians(yawDelta), 0)
	pitch := raytrace.RotationMatrix(0, raytrace.Radians(pitchDelta))
	c.orient = yaw.Mul(c.orient).Mul(pitch)
	c.right = c.orient.Col(0)
	c.up = c.orient.Col(1)
	c.front = c.orient.Col(2).Neg()
	c.pitch = ClampPitch(raytrace.Degrees(math.Asin(clampUnit(c.front.Y))))
}
