package views

// AsyncEngine runs another engine's compile and render steps on their own
// goroutines and reports completion through callbacks. Panics raised by the
// wrapped engine are recovered and delivered as errors.
type AsyncEngine struct {
	inner Engine
}

// NewAsyncEngine wraps inner so that it compiles and renders asynchronously.
func NewAsyncEngine(inner Engine) *AsyncEngine {
	return &AsyncEngine{inner: inner}
}

// Compile compiles synchronously; used when asyncCompile is off.
func (e *AsyncEngine) Compile(name, source string, opts map[string]any) (Template, error) {
	return e.compileGuarded(name, source, opts)
}

// CompileAsync compiles on a new goroutine and invokes done exactly once.
func (e *AsyncEngine) CompileAsync(name, source string, opts map[string]any, done CompileCallback) {
	go func() {
		tmpl, err := e.compileGuarded(name, source, opts)
		done(tmpl, err)
	}()
}

// RendersAsync reports that compiled templates implement AsyncTemplate.
func (e *AsyncEngine) RendersAsync() bool {
	return true
}

// RegisterPartial forwards to the wrapped engine.
func (e *AsyncEngine) RegisterPartial(name, source string) error {
	if pr, ok := e.inner.(PartialRegistrar); ok {
		return pr.RegisterPartial(name, source)
	}
	return nil
}

// SupportsPartials reports whether the wrapped engine accepts partials.
func (e *AsyncEngine) SupportsPartials() bool {
	return CapabilitiesOf(e.inner).Partials
}

// WrapContent forwards to the wrapped engine.
func (e *AsyncEngine) WrapContent(content string) any {
	return wrapContent(e.inner, content)
}

func (e *AsyncEngine) compileGuarded(name, source string, opts map[string]any) (tmpl Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			tmpl, err = nil, panicError(r)
		}
	}()

	inner, err := e.inner.Compile(name, source, opts)
	if err != nil {
		return nil, err
	}
	return &asyncTemplate{inner: inner}, nil
}

type asyncTemplate struct {
	inner Template
}

func (t *asyncTemplate) Execute(data map[string]any, opts map[string]any) (string, error) {
	return t.executeGuarded(data, opts)
}

func (t *asyncTemplate) ExecuteAsync(data map[string]any, opts map[string]any, done ExecuteCallback) {
	go func() {
		out, err := t.executeGuarded(data, opts)
		done(out, err)
	}()
}

func (t *asyncTemplate) executeGuarded(data map[string]any, opts map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", panicError(r)
		}
	}()
	return t.inner.Execute(data, opts)
}
