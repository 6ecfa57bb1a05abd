// Package trajectory integrates the path of a light ray bent by a central
// mass and keeps its camera projection current for the overlay renderer.
//
// The ray obeys an inverse-fifth-power radial law
//
//	a = K·H²/|p|^5 · p
//
// where H² = |p₀ × v₀|² is the squared specific angular momentum fixed by
// the initial state and K < 0 pulls the ray toward the origin. Steps use
// semi-implicit Euler: velocity first, then position from the new velocity.
// The force is central, so p × v is conserved exactly by each step up to
// rounding.
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/raytrace"
)

// DefaultK is the default potential coefficient.
const DefaultK = -1.5

// Reason explains why integration stopped.
type Reason int

const (
	// ReasonNone means the path is still growing.
	ReasonNone Reason = iota
	// ReasonCapped means the point count reached MaxPoints.
	ReasonCapped
	// ReasonAbsorbed means the ray fell inside InnerRadius.
	ReasonAbsorbed
	// ReasonEscaped means the ray left OuterRadius toward the sky.
	ReasonEscaped
)

// String returns a short name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "running"
	case ReasonCapped:
		return "capped"
	case ReasonAbsorbed:
		return "absorbed"
	case ReasonEscaped:
		return "escaped"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// ErrInvalidConfig is returned by New for unusable parameters.
var ErrInvalidConfig = errors.New("trajectory: invalid config")

// Config describes the initial state and stop policy of a path.
type Config struct {
	Position raytrace.Vec3
	Velocity raytrace.Vec3

	// K is the potential coefficient. Zero selects DefaultK.
	K float64

	// Step is the base integration step.
	Step float64

	// Adaptive scales each step by 1 - 1/√|p|, slowing the ray where the
	// curvature is strong.
	Adaptive bool

	// MaxPoints caps the number of stored points, including the start.
	MaxPoints int

	// InnerRadius and OuterRadius bound the shell the ray may occupy.
	// A zero value disables that bound.
	InnerRadius float64
	OuterRadius float64
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.Step <= 0:
		return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidConfig, c.Step)
	case c.MaxPoints < 1:
		return fmt.Errorf("%w: max points must be at least 1, got %d", ErrInvalidConfig, c.MaxPoints)
	case c.InnerRadius < 0 || c.OuterRadius < 0:
		return fmt.Errorf("%w: radii must not be negative", ErrInvalidConfig)
	case c.OuterRadius != 0 && c.OuterRadius <= c.InnerRadius:
		return fmt.Errorf("%w: outer radius %v must exceed inner radius %v",
			ErrInvalidConfig, c.OuterRadius, c.InnerRadius)
	case c.Position.IsZero():
		return fmt.Errorf("%w: start position must not be the center", ErrInvalidConfig)
	case c.K > 0:
		return fmt.Errorf("%w: K must not be positive, got %v", ErrInvalidConfig, c.K)
	case c.Adaptive && c.InnerRadius <= 1:
		// The adaptive factor 1 - 1/√|p| vanishes at |p| = 1.
		return fmt.Errorf("%w: adaptive steps need an inner radius above 1, got %v",
			ErrInvalidConfig, c.InnerRadius)
	}
	return nil
}

// Projection is the camera-space projection of one trajectory point.
type Projection struct {
	NDC     raytrace.Vec3 // normalized device coordinates
	Visible bool          // false when the point is behind the near plane
}

// Projector maps world points into normalized device coordinates.
// *camera.Camera implements it.
type Projector interface {
	Project(p raytrace.Vec3) (raytrace.Vec3, bool)
}

// Path is an append-only sequence of integrated points.
type Path struct {
	cfg Config
	k   float64
	h2  float64

	p raytrace.Vec3
	v raytrace.Vec3

	points    []raytrace.Vec3
	projected []Projection
	reason    Reason
}

// New starts a path at cfg.Position. The starting point is recorded and
// the stop conditions are checked immediately.
func New(cfg Config) (*Path, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k := cfg.K
	if k == 0 {
		k = DefaultK
	}
	t := &Path{
		cfg:    cfg,
		k:      k,
		h2:     cfg.Position.Cross(cfg.Velocity).LengthSq(),
		p:      cfg.Position,
		v:      cfg.Velocity,
		points: make([]raytrace.Vec3, 0, min(cfg.MaxPoints, 4096)),
	}
	t.points = append(t.points, t.p)
	t.checkStop()
	return t, nil
}

// H2 returns the squared angular momentum fixed at construction.
func (t *Path) H2() float64 { return t.h2 }

// AngularMomentumSq returns |p × v|² for the current state.
func (t *Path) AngularMomentumSq() float64 {
	return t.p.Cross(t.v).LengthSq()
}

// Position returns the current ray position.
func (t *Path) Position() raytrace.Vec3 { return t.p }

// Velocity returns the current ray velocity.
func (t *Path) Velocity() raytrace.Vec3 { return t.v }

// Points returns the recorded points. The slice must not be modified.
func (t *Path) Points() []raytrace.Vec3 { return t.points }

// Projected returns the projections computed by the last Reproject call,
// parallel to Points at that time.
func (t *Path) Projected() []Projection { return t.projected }

// Len returns the number of recorded points.
func (t *Path) Len() int { return len(t.points) }

// Stopped reports whether the path is frozen.
func (t *Path) Stopped() bool { return t.reason != ReasonNone }

// Reason returns why the path stopped, or ReasonNone.
func (t *Path) Reason() Reason { return t.reason }

// Acceleration returns K·H²/|p|^5 · p at p.
func (t *Path) Acceleration(p raytrace.Vec3) raytrace.Vec3 {
	r2 := p.LengthSq()
	r5 := r2 * r2 * math.Sqrt(r2)
	return p.Mul(t.k * t.h2 / r5)
}

// stepSize returns the step for the current position.
func (t *Path) stepSize() float64 {
	h := t.cfg.Step
	if t.cfg.Adaptive {
		h *= 1 - 1/math.Sqrt(t.p.Length())
	}
	return h
}

// Step advances one integration step and records the new point.
// It returns false without changing anything once the path is stopped.
func (t *Path) Step() bool {
	if t.Stopped() {
		return false
	}
	h := t.stepSize()
	t.v = t.v.Add(t.Acceleration(t.p).Mul(h))
	t.p = t.p.Add(t.v.Mul(h))
	t.points = append(t.points, t.p)
	t.checkStop()
	return true
}

// Advance runs up to n steps and returns how many were taken.
func (t *Path) Advance(n int) int {
	taken := 0
	for taken < n && t.Step() {
		taken++
	}
	return taken
}

func (t *Path) checkStop() {
	r := t.p.Length()
	switch {
	case t.cfg.InnerRadius > 0 && r < t.cfg.InnerRadius:
		t.reason = ReasonAbsorbed
	case t.cfg.OuterRadius > 0 && r > t.cfg.OuterRadius:
		t.reason = ReasonEscaped
	case len(t.points) >= t.cfg.MaxPoints:
		t.reason = ReasonCapped
	}
}

// Reproject recomputes the projection of every point through proj.
// Call it every frame: the camera may move while the path is frozen.
func (t *Path) Reproject(proj Projector) []Projection {
	if cap(t.projected) < len(t.points) {
		t.projected = make([]Projection, len(t.points), cap(t.points))
	}
	t.projected = t.projected[:len(t.points)]
	for i, p := range t.points {
		ndc, ok := proj.Project(p)
		t.projected[i] = Projection{NDC: ndc, Visible: ok}
	}
	return t.projected
}
