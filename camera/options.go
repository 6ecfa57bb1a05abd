package camera

// Option configures a Camera during creation.
//
// Example:
//
//	cam := camera.New(eye, center, up, 45,
//	    camera.WithAspect(16.0/9.0),
//	    camera.WithPolicy(camera.PolicyIncremental))
type Option func(*options)

type options struct {
	aspect float64
	near   float64
	far    float64
	policy Policy
}

func defaultOptions() options {
	return options{
		aspect: DefaultAspect,
		near:   DefaultNear,
		far:    DefaultFar,
		policy: PolicyEuler,
	}
}

// WithAspect sets the width/height ratio used by projection.
func WithAspect(aspect float64) Option {
	return func(o *options) {
		if aspect > 0 {
			o.aspect = aspect
		}
	}
}

// WithClip sets the near and far clip distances used by projection.
func WithClip(near, far float64) Option {
	return func(o *options) {
		o.near = near
		o.far = far
	}
}

// WithPolicy selects the orientation update policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}
