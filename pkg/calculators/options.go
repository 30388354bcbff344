package calculators

import "net/http"

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath string
	Guard     GuardFunc
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{RoutePath: "/api/calculators"}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/calculators"
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithGuard rejects requests before any calculation runs.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}
