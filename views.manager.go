package views

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Callback receives the outcome of a render: the rendered output, or a
// *ViewError. It is invoked exactly once per render call.
type Callback func(output string, err error)

// Manager resolves, compiles, caches and renders templates across any
// number of engines, optionally composing the result into a layout.
type Manager struct {
	config    Config
	registry  *Registry
	resolver  *Resolver
	cache     *compileCache
	source    Source
	logger    *zap.Logger
	metrics   *Metrics
	sanitizer *bluemonday.Policy
	partials  int
	async     bool
}

// New creates a Manager. Partials, when configured, are registered here,
// once, before any render can depend on them.
func New(cfg Config, opts ...Option) (*Manager, error) {
	o := defaultManagerOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	config := cfg.clone()
	if err := ApplyDefaults(&config); err != nil {
		return nil, err
	}
	if err := Validate(&config); err != nil {
		return nil, err
	}

	registry, err := NewRegistry(config.Engines, config.AsyncCompile, config.AsyncRender, logger)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:    config,
		registry:  registry,
		resolver:  NewResolver(config.Path, config.DefaultExtension, registry),
		cache:     newCompileCache(config.CacheEnabled()),
		source:    o.source,
		logger:    logger,
		sanitizer: o.sanitizer,
		async:     registry.AnyAsync(),
	}

	if o.registry != nil {
		metrics, err := NewMetrics(o.registry)
		if err != nil {
			return nil, err
		}
		m.metrics = metrics
	}

	if m.sanitizer == nil {
		for _, ec := range config.Engines {
			if ec.Sanitize {
				m.sanitizer = bluemonday.UGCPolicy()
				break
			}
		}
	}

	if config.Partials.Path != "" {
		n, err := loadPartials(config.Partials.Path, registry, logger)
		if err != nil {
			return nil, err
		}
		m.partials = n
	}

	logger.Info(LogMsgManagerCreated,
		zap.String(LogFieldPath, config.Path),
		zap.Strings(LogFieldEngine, registry.Extensions()),
		zap.Bool(LogFieldLayout, config.Layout),
		zap.Bool(LogFieldAsync, m.async),
	)
	return m, nil
}

// MustNew creates a new Manager and panics if there's an error.
func MustNew(cfg Config, opts ...Option) *Manager {
	m, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Render renders the named template. After name it accepts, in any order,
// an optional data map (map[string]any) and optional *CallOptions; the last
// argument must be the Callback (or a func(string, error)).
//
//	m.Render("users/show", cb)
//	m.Render("users/show", data, cb)
//	m.Render("users/show", data, &views.CallOptions{Layout: views.Bool(false)}, cb)
//
// A non-string name is reported through the callback. In a manager where no
// engine is asynchronous, a data map holding the reserved layout keyword
// panics with the *ViewError, and engine panics propagate to the caller;
// use RenderString for a recovered, error-returning call.
func (m *Manager) Render(name any, args ...any) {
	data, opts, cb, err := shiftArgs(args)
	if cb == nil {
		panic(ErrMsgMissingCallback)
	}
	if err != nil {
		cb("", err)
		return
	}
	m.RenderWith(name, data, opts, cb)
}

// RenderWith is Render with a fixed signature.
func (m *Manager) RenderWith(name any, data map[string]any, opts *CallOptions, cb Callback) {
	if cb == nil {
		panic(ErrMsgMissingCallback)
	}
	if data == nil {
		data = map[string]any{}
	}
	if opts == nil {
		opts = &CallOptions{}
	}
	newRenderCall(m, name, data, opts, cb).run()
}

// RenderString renders synchronously and returns the output. It is a fault
// boundary: panics raised during the render are returned as *ViewError.
// When ctx ends first, ctx.Err() is returned; the render itself is not
// cancelled and its late result is discarded.
func (m *Manager) RenderString(ctx context.Context, name string, data map[string]any, opts *CallOptions) (string, error) {
	type result struct {
		out string
		err error
	}
	ch := make(chan result, 1)
	deliver := func(out string, err error) {
		select {
		case ch <- result{out: out, err: err}:
		default:
		}
	}

	call := CallOptions{}
	if opts != nil {
		call = *opts
	}
	if call.Context == nil {
		call.Context = ctx
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				deliver("", recoveredError(r, name))
			}
		}()
		m.RenderWith(name, data, &call, deliver)
	}()

	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Precompile resolves and compiles name into the cache without rendering it.
// Engines with asynchronous compilation are waited on; ctx bounds the wait.
func (m *Manager) Precompile(ctx context.Context, name string) (err error) {
	rt, ve := m.resolver.Resolve(name)
	if ve != nil {
		return ve
	}

	ec := ErrorContext{Kind: KindCompileFailure, Stage: StageContent, Template: rt.Name}
	defer func() {
		if r := recover(); r != nil {
			err = Normalize(panicError(r), ec)
		}
	}()

	if !rt.Engine.AsyncCompile {
		if _, err := m.getOrCompile(ctx, rt, rt.Engine.Config.CompileOptions); err != nil {
			return Normalize(err, ec)
		}
		return nil
	}

	ch := make(chan error, 1)
	m.getOrCompileAsync(ctx, rt, rt.Engine.Config.CompileOptions, func(_ Template, err error) {
		ch <- err
	})
	select {
	case err := <-ch:
		if err != nil {
			return Normalize(err, ec)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ContentType returns the content type declared by the engine that renders
// name, or text/html.
func (m *Manager) ContentType(name string) string {
	rt, ve := m.resolver.Resolve(name)
	if ve != nil {
		return DefaultContentType
	}
	return rt.Engine.ContentType()
}

// Settings returns a copy of the effective configuration.
func (m *Manager) Settings() Config {
	return m.config.clone()
}

// Engines returns the registry the manager renders with.
func (m *Manager) Engines() *Registry {
	return m.registry
}

// PartialCount returns how many partial files were registered at construction.
func (m *Manager) PartialCount() int {
	return m.partials
}

// InvalidateCache drops the compiled template for a template name or
// absolute path. Reports whether an entry was removed.
func (m *Manager) InvalidateCache(nameOrPath string) bool {
	key := nameOrPath
	if rt, ve := m.resolver.Resolve(nameOrPath); ve == nil {
		if m.cache.invalidate(rt.AbsPath) {
			m.logger.Debug(LogMsgCacheInvalidated, zap.String(LogFieldPath, rt.AbsPath))
			return true
		}
	}
	if m.cache.invalidate(key) {
		m.logger.Debug(LogMsgCacheInvalidated, zap.String(LogFieldPath, key))
		return true
	}
	return false
}

// PurgeCache drops every compiled template and returns how many were held.
func (m *Manager) PurgeCache() int {
	n := m.cache.purge()
	m.logger.Debug(LogMsgCachePurged, zap.Int(LogFieldCount, n))
	return n
}

// CachedCount returns the number of compiled templates held.
func (m *Manager) CachedCount() int {
	return m.cache.len()
}

// shiftArgs sorts Render's variadic arguments into data, options and callback.
func shiftArgs(args []any) (map[string]any, *CallOptions, Callback, error) {
	if len(args) == 0 {
		return nil, nil, nil, nil
	}

	cb := asCallback(args[len(args)-1])
	if cb == nil {
		return nil, nil, nil, nil
	}

	var (
		data map[string]any
		opts *CallOptions
	)
	for _, arg := range args[:len(args)-1] {
		switch v := arg.(type) {
		case nil:
			continue
		case map[string]any:
			if data != nil {
				return nil, nil, cb, unexpectedArgument(arg)
			}
			data = v
		case *CallOptions:
			opts = v
		case CallOptions:
			opts = &v
		default:
			return nil, nil, cb, unexpectedArgument(arg)
		}
	}
	return data, opts, cb, nil
}

func asCallback(v any) Callback {
	switch fn := v.(type) {
	case Callback:
		return fn
	case func(string, error):
		return fn
	default:
		return nil
	}
}

func unexpectedArgument(arg any) *ViewError {
	return newInputError(fmt.Sprintf(ErrFmtTypeDetail, ErrMsgUnexpectedArgument, arg), "")
}

// recoveredError turns a recovered panic into a normalized error.
func recoveredError(r any, name string) *ViewError {
	if ve, ok := r.(*ViewError); ok {
		return ve
	}
	return Normalize(panicError(r), ErrorContext{Kind: KindRenderFailure, Stage: StageContent, Template: name})
}
