package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsatony/go-views/internal"
)

// renderState tracks one render call through the pipeline.
type renderState string

const (
	stateStart            renderState = "start"
	stateResolving        renderState = "resolving"
	stateCompiling        renderState = "compiling"
	stateRenderingContent renderState = "rendering_content"
	stateResolvingLayout  renderState = "resolving_layout"
	stateCompilingLayout  renderState = "compiling_layout"
	stateRenderingLayout  renderState = "rendering_layout"
	stateDone             renderState = "done"
	stateFailed           renderState = "failed"
)

var errReservedKeywordAtLayout = errors.New(ErrMsgReservedKeyword)

// renderCall is the state of a single render. Stages run strictly in
// sequence; with asynchronous engines each stage continues on the goroutine
// that delivered the previous stage's result.
type renderCall struct {
	m       *Manager
	id      string
	ctx     context.Context
	name    any
	data    map[string]any
	opts    *CallOptions
	cb      Callback
	started time.Time

	mu     sync.Mutex
	state  renderState
	engine string
	once   sync.Once
}

func newRenderCall(m *Manager, name any, data map[string]any, opts *CallOptions, cb Callback) *renderCall {
	return &renderCall{
		m:       m,
		id:      uuid.NewString(),
		ctx:     opts.context(),
		name:    name,
		data:    data,
		opts:    opts,
		cb:      cb,
		started: time.Now(),
		state:   stateStart,
	}
}

func (c *renderCall) layoutEnabled() bool {
	if c.opts.Layout != nil {
		return *c.opts.Layout
	}
	return c.m.config.Layout
}

func (c *renderCall) layoutFile() string {
	if c.opts.LayoutFile != "" {
		return c.opts.LayoutFile
	}
	return c.m.config.LayoutFile
}

func (c *renderCall) transition(s renderState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.m.logger.Debug(LogMsgStateTransition,
		zap.String(LogFieldRenderID, c.id),
		zap.String(LogFieldState, string(s)),
	)
}

func (c *renderCall) templateName() string {
	s, _ := c.name.(string)
	return s
}

// run executes the pipeline from the Start state.
func (c *renderCall) run() {
	c.m.logger.Debug(LogMsgRenderStart,
		zap.String(LogFieldRenderID, c.id),
		zap.String(LogFieldTemplate, c.templateName()),
	)

	c.transition(stateResolving)
	if s, ok := c.name.(string); !ok || s == "" {
		c.fail(NewInvalidNameError(c.name))
		return
	}

	if c.layoutEnabled() {
		keyword := c.m.config.LayoutKeyword
		if _, taken := c.data[keyword]; taken {
			ve := NewReservedKeywordError(keyword, c.templateName())
			if !c.m.async {
				c.m.logger.Warn(LogMsgSyncFaultEscalated,
					zap.String(LogFieldRenderID, c.id),
					zap.String(LogFieldTemplate, c.templateName()),
				)
				c.m.metrics.observeError(ve)
				c.m.metrics.observeRender(c.engine, ve, time.Since(c.started))
				panic(ve)
			}
			c.fail(ve)
			return
		}
	}

	rt, ve := c.m.resolver.Resolve(c.name)
	if ve != nil {
		c.fail(ve)
		return
	}
	c.mu.Lock()
	c.engine = rt.Extension
	c.mu.Unlock()

	c.transition(stateCompiling)
	c.compile(rt, StageContent, func(tmpl Template) {
		c.transition(stateRenderingContent)
		c.execute(rt, tmpl, c.data, StageContent, func(content string) {
			if rt.Engine.Config.Sanitize {
				content = c.m.sanitizer.Sanitize(content)
			}
			if !c.layoutEnabled() {
				c.succeed(content)
				return
			}
			c.renderLayout(content)
		})
	})
}

// renderLayout composes content into the configured layout.
func (c *renderCall) renderLayout(content string) {
	c.transition(stateResolvingLayout)
	lrt, ve := c.m.resolver.Resolve(c.layoutFile())
	if ve != nil {
		ve.Stage = StageLayout
		c.fail(ve)
		return
	}

	c.transition(stateCompilingLayout)
	c.compile(lrt, StageLayout, func(tmpl Template) {
		layoutData, err := layoutContext(c.data, c.m.config.LayoutKeyword, wrapContent(lrt.Engine.Config.Module, content))
		if err != nil {
			c.fail(Normalize(err, ErrorContext{Kind: KindRenderFailure, Stage: StageLayout, Template: lrt.Name}))
			return
		}

		c.transition(stateRenderingLayout)
		c.execute(lrt, tmpl, layoutData, StageLayout, c.succeed)
	})
}

// compile resolves rt to a compiled template, synchronously or through the
// engine's asynchronous compile, and continues with next on success.
func (c *renderCall) compile(rt *ResolvedTemplate, stage Stage, next func(Template)) {
	opts := mergeOptions(rt.Engine.Config.CompileOptions, c.opts.CompileOptions)
	ec := ErrorContext{Kind: KindCompileFailure, Stage: stage, Template: rt.Name}

	if rt.Engine.AsyncCompile {
		c.m.getOrCompileAsync(c.ctx, rt, opts, func(tmpl Template, err error) {
			if err != nil {
				c.fail(Normalize(err, ec))
				return
			}
			next(tmpl)
		})
		return
	}

	var (
		tmpl Template
		err  error
	)
	if !c.guard(ec, func() { tmpl, err = c.m.getOrCompile(c.ctx, rt, opts) }) {
		return
	}
	if err != nil {
		c.fail(Normalize(err, ec))
		return
	}
	next(tmpl)
}

// execute renders tmpl against data and continues with next on success.
func (c *renderCall) execute(rt *ResolvedTemplate, tmpl Template, data map[string]any, stage Stage, next func(string)) {
	opts := mergeOptions(rt.Engine.Config.RenderOptions, c.opts.RenderOptions)
	ec := ErrorContext{Kind: KindRenderFailure, Stage: stage, Template: rt.Name}

	if rt.Engine.AsyncRender {
		if at, ok := tmpl.(AsyncTemplate); ok {
			var h internal.Handoff
			done := internal.Once2(func(out string, err error) {
				h.Deliver(func() {
					if err != nil {
						c.fail(Normalize(err, ec))
						return
					}
					next(out)
				})
			})
			func() {
				defer func() {
					if r := recover(); r != nil {
						done("", panicError(r))
					}
				}()
				at.ExecuteAsync(data, opts, done)
			}()
			h.Release()
			return
		}
	}

	var (
		out string
		err error
	)
	if !c.guard(ec, func() { out, err = tmpl.Execute(data, opts) }) {
		return
	}
	if err != nil {
		c.fail(Normalize(err, ec))
		return
	}
	next(out)
}

// guard runs a synchronous engine call. In an asynchronous manager a panic
// fails the render at the stage described by ec and guard returns false; a
// fully synchronous manager lets the panic propagate to the caller.
func (c *renderCall) guard(ec ErrorContext, call func()) (ok bool) {
	if !c.m.async {
		call()
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			c.fail(Normalize(panicError(r), ec))
			ok = false
		}
	}()
	call()
	return true
}

func (c *renderCall) succeed(output string) {
	c.transition(stateDone)
	c.finish(output, nil)
}

func (c *renderCall) fail(ve *ViewError) {
	c.transition(stateFailed)
	c.m.metrics.observeError(ve)
	c.m.logger.Warn(LogMsgRenderFailed,
		zap.String(LogFieldRenderID, c.id),
		zap.String(LogFieldTemplate, c.templateName()),
		zap.String(LogFieldKind, string(ve.Kind)),
		zap.String(LogFieldStage, string(ve.Stage)),
		zap.Error(ve),
	)
	c.finish("", ve)
}

// finish invokes the caller's callback at most once.
func (c *renderCall) finish(output string, err error) {
	c.once.Do(func() {
		elapsed := time.Since(c.started)
		c.mu.Lock()
		engine := c.engine
		c.mu.Unlock()

		c.m.metrics.observeRender(engine, err, elapsed)
		if err == nil {
			c.m.logger.Debug(LogMsgRenderDone,
				zap.String(LogFieldRenderID, c.id),
				zap.String(LogFieldTemplate, c.templateName()),
				zap.Duration(LogFieldDuration, elapsed),
			)
		}
		c.cb(output, err)
	})
}

// layoutContext returns a copy of data with content bound under keyword.
// The caller's map is never modified.
func layoutContext(data map[string]any, keyword string, content any) (map[string]any, error) {
	if _, taken := data[keyword]; taken {
		return nil, errReservedKeywordAtLayout
	}
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out[keyword] = content
	return out, nil
}
