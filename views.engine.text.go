package views

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/itsatony/go-views/internal"
)

const textPartialsRoot = "views.partials"

// TextEngine adapts text/template for non-HTML output such as plain-text
// mail bodies. It supports partial registration.
type TextEngine struct {
	mu       sync.RWMutex
	funcs    template.FuncMap
	partials *template.Template
}

// NewTextEngine creates a text/template adapter. The built-in helpers are
// always available; funcs add to or replace them.
func NewTextEngine(funcs template.FuncMap) *TextEngine {
	merged := template.FuncMap(internal.Funcs())
	for name, fn := range funcs {
		merged[name] = fn
	}
	return &TextEngine{funcs: merged}
}

// Compile parses source into a template that can see every registered partial.
func (e *TextEngine) Compile(name, source string, opts map[string]any) (Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var t *template.Template
	if e.partials != nil {
		root, err := e.partials.Clone()
		if err != nil {
			return nil, err
		}
		t = root.New(name)
	} else {
		t = template.New(name).Funcs(e.funcs)
	}

	if fns := funcOptions(opts); fns != nil {
		t = t.Funcs(template.FuncMap(fns))
	}
	if mk := missingKeyOption(opts); mk != "" {
		t = t.Option(mk)
	}
	t = t.Delims(delimOptions(opts))

	parsed, err := t.Parse(source)
	if err != nil {
		return nil, err
	}
	return &textTemplate{tmpl: parsed}, nil
}

// RegisterPartial adds a named fragment usable via {{template "name" .}}.
func (e *TextEngine) RegisterPartial(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.partials == nil {
		e.partials = template.New(textPartialsRoot).Funcs(e.funcs)
	}
	_, err := e.partials.New(name).Parse(source)
	return err
}

type textTemplate struct {
	tmpl *template.Template
}

func (t *textTemplate) Execute(data map[string]any, _ map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, cloneData(data)); err != nil {
		return "", classifyExecError(err)
	}
	return buf.String(), nil
}
