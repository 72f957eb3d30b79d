package views

// Engine is the integration point for one template technology.
// Compile turns template source into an executable Template. The name is the
// resolved path and is used only for diagnostics.
type Engine interface {
	Compile(name, source string, opts map[string]any) (Template, error)
}

// Template is a compiled template produced by an Engine.
type Template interface {
	Execute(data map[string]any, opts map[string]any) (string, error)
}

// CompileCallback receives the outcome of an asynchronous compilation.
type CompileCallback func(tmpl Template, err error)

// ExecuteCallback receives the outcome of an asynchronous render.
type ExecuteCallback func(output string, err error)

// AsyncCompiler is implemented by engines whose compile step completes later.
// Implementations must invoke done exactly once.
type AsyncCompiler interface {
	CompileAsync(name, source string, opts map[string]any, done CompileCallback)
}

// AsyncTemplate is implemented by compiled templates whose render step
// completes later. Implementations must invoke done exactly once.
type AsyncTemplate interface {
	ExecuteAsync(data map[string]any, opts map[string]any, done ExecuteCallback)
}

// PartialRegistrar is implemented by engines that accept named fragments
// for inclusion by other templates.
type PartialRegistrar interface {
	RegisterPartial(name, source string) error
}

// ContentWrapper lets an engine decide how rendered content is bound into a
// layout context, e.g. marking it as already-escaped HTML.
type ContentWrapper interface {
	WrapContent(content string) any
}

// Capabilities describes what an engine adapter can do.
type Capabilities struct {
	AsyncCompile bool
	AsyncRender  bool
	Partials     bool
}

// CapabilitiesOf inspects an engine for its optional capabilities.
// AsyncRender is declared by the engine through the AsyncRenderer marker
// because it is a property of the templates the engine produces.
func CapabilitiesOf(e Engine) Capabilities {
	var caps Capabilities
	if e == nil {
		return caps
	}
	_, caps.AsyncCompile = e.(AsyncCompiler)
	_, caps.Partials = e.(PartialRegistrar)
	if ar, ok := e.(AsyncRenderer); ok {
		caps.AsyncRender = ar.RendersAsync()
	}
	if ps, ok := e.(PartialSupporter); ok {
		caps.Partials = caps.Partials && ps.SupportsPartials()
	}
	return caps
}

// PartialSupporter lets wrapping adapters report whether the engine they
// wrap accepts partials.
type PartialSupporter interface {
	SupportsPartials() bool
}

// AsyncRenderer marks engines whose compiled templates implement AsyncTemplate.
type AsyncRenderer interface {
	RendersAsync() bool
}

// wrapContent binds content for layout injection.
func wrapContent(e Engine, content string) any {
	if w, ok := e.(ContentWrapper); ok {
		return w.WrapContent(content)
	}
	return content
}

// mergeOptions overlays per-call options on engine defaults without
// mutating either map.
func mergeOptions(base, override map[string]any) map[string]any {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
