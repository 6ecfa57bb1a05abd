package kernel

// Option configures a Tracer.
type Option func(*options)

type options struct {
	source string
}

func defaultOptions() options {
	return options{source: kernelSource}
}

// WithSource replaces the embedded kernel body. The body must carry the
// current layout comment and must not declare ShaderData itself.
func WithSource(body string) Option {
	return func(o *options) {
		if body != "" {
			o.source = body
		}
	}
}
