package views

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-views/internal"
)

// compileCache memoizes compiled templates by absolute path.
// Two renders racing on the same cold path may both compile; the last
// writer wins and both results are valid, so no request coalescing is done.
type compileCache struct {
	enabled bool

	mu      sync.RWMutex
	entries map[string]Template
}

func newCompileCache(enabled bool) *compileCache {
	return &compileCache{
		enabled: enabled,
		entries: make(map[string]Template),
	}
}

func (c *compileCache) get(key string) (Template, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	tmpl, ok := c.entries[key]
	return tmpl, ok
}

func (c *compileCache) put(key string, tmpl Template) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = tmpl
}

func (c *compileCache) invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		return true
	}
	return false
}

func (c *compileCache) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]Template)
	return n
}

func (c *compileCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// lookup checks the cache and records the hit or miss.
func (m *Manager) lookup(rt *ResolvedTemplate) (Template, bool) {
	if !m.cache.enabled {
		return nil, false
	}
	tmpl, ok := m.cache.get(rt.AbsPath)
	m.metrics.observeCache(ok)
	if ok {
		m.logger.Debug(LogMsgCacheHit, zap.String(LogFieldPath, rt.AbsPath))
	} else {
		m.logger.Debug(LogMsgCacheMiss, zap.String(LogFieldPath, rt.AbsPath))
	}
	return tmpl, ok
}

// getOrCompile returns the cached template for rt or compiles it with the
// engine's synchronous compile step. Engine panics are not recovered here:
// synchronous engines fault into the caller.
func (m *Manager) getOrCompile(ctx context.Context, rt *ResolvedTemplate, opts map[string]any) (Template, error) {
	if tmpl, ok := m.lookup(rt); ok {
		return tmpl, nil
	}

	source, err := m.source.ReadTemplate(ctx, rt)
	if err != nil {
		return nil, asNotFound(rt, err)
	}

	m.metrics.observeCompile(rt.Extension)
	tmpl, err := rt.Engine.Config.Module.Compile(rt.AbsPath, string(source), opts)
	if err != nil {
		return nil, err
	}
	m.cache.put(rt.AbsPath, tmpl)
	return tmpl, nil
}

// getOrCompileAsync is the callback variant for engines with asynchronous
// compilation. done runs exactly once and never inside the engine's
// CompileAsync call; a panic raised by that call is delivered to done as an
// error.
func (m *Manager) getOrCompileAsync(ctx context.Context, rt *ResolvedTemplate, opts map[string]any, done CompileCallback) {
	done = internal.Once2(done)

	if tmpl, ok := m.lookup(rt); ok {
		done(tmpl, nil)
		return
	}

	source, err := m.source.ReadTemplate(ctx, rt)
	if err != nil {
		done(nil, asNotFound(rt, err))
		return
	}

	compiler, ok := rt.Engine.Config.Module.(AsyncCompiler)
	if !ok {
		done(nil, &ConfigError{Message: ErrMsgAsyncUnsupported, Field: rt.Extension})
		return
	}

	var h internal.Handoff
	complete := internal.Once2(func(tmpl Template, err error) {
		h.Deliver(func() {
			if err != nil {
				done(nil, err)
				return
			}
			m.cache.put(rt.AbsPath, tmpl)
			done(tmpl, nil)
		})
	})

	m.metrics.observeCompile(rt.Extension)
	func() {
		defer func() {
			if r := recover(); r != nil {
				complete(nil, panicError(r))
			}
		}()
		compiler.CompileAsync(rt.AbsPath, string(source), opts, complete)
	}()
	h.Release()
}

// asNotFound guarantees read failures are classified as missing templates.
func asNotFound(rt *ResolvedTemplate, err error) error {
	if _, ok := err.(*TemplateNotFoundError); ok {
		return err
	}
	return &TemplateNotFoundError{Path: rt.RelPath, Cause: err}
}
