package views

import (
	"context"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Manager.
type Option func(*managerOptions)

// managerOptions holds collaborators that are not part of Config.
type managerOptions struct {
	logger    *zap.Logger
	registry  prometheus.Registerer
	source    Source
	sanitizer *bluemonday.Policy
}

// defaultManagerOptions returns the default collaborators.
func defaultManagerOptions() *managerOptions {
	return &managerOptions{
		logger: nil,
		source: FileSource{},
	}
}

// WithLogger sets the logger for the manager.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithMetrics registers render metrics with reg.
// Default: no metrics
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *managerOptions) {
		o.registry = reg
	}
}

// WithSource sets where template source is read from.
// Default: FileSource
func WithSource(source Source) Option {
	return func(o *managerOptions) {
		if source != nil {
			o.source = source
		}
	}
}

// WithSanitizer sets the HTML policy used by engines configured with Sanitize.
// Default: bluemonday.UGCPolicy()
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *managerOptions) {
		o.sanitizer = policy
	}
}

// CallOptions override manager settings for a single render.
type CallOptions struct {
	// Layout overrides Config.Layout when set.
	Layout *bool
	// LayoutFile overrides Config.LayoutFile when set.
	LayoutFile string
	// CompileOptions and RenderOptions are merged over the engine's options.
	CompileOptions map[string]any
	RenderOptions  map[string]any
	// Context is passed to the template source. Default: context.Background().
	Context context.Context
}

func (o *CallOptions) context() context.Context {
	if o == nil || o.Context == nil {
		return context.Background()
	}
	return o.Context
}
