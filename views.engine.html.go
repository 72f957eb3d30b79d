package views

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/itsatony/go-views/internal"
)

const htmlPartialsRoot = "views.partials"

// HTMLEngine adapts html/template. It supports partial registration and
// injects layout content as template.HTML so it is not escaped twice.
type HTMLEngine struct {
	mu       sync.RWMutex
	funcs    template.FuncMap
	partials *template.Template
}

// NewHTMLEngine creates an html/template adapter. The built-in helpers are
// always available; funcs add to or replace them.
func NewHTMLEngine(funcs template.FuncMap) *HTMLEngine {
	merged := template.FuncMap(internal.Funcs())
	for name, fn := range funcs {
		merged[name] = fn
	}
	return &HTMLEngine{funcs: merged}
}

// Compile parses source into a template that can see every registered partial.
func (e *HTMLEngine) Compile(name, source string, opts map[string]any) (Template, error) {
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
	return &htmlTemplate{tmpl: parsed}, nil
}

// RegisterPartial adds a named fragment usable via {{template "name" .}}.
func (e *HTMLEngine) RegisterPartial(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.partials == nil {
		e.partials = template.New(htmlPartialsRoot).Funcs(e.funcs)
	}
	_, err := e.partials.New(name).Parse(source)
	return err
}

// WrapContent marks rendered content as safe HTML for the layout.
func (e *HTMLEngine) WrapContent(content string) any {
	return template.HTML(content)
}

type htmlTemplate struct {
	tmpl *template.Template
}

func (t *htmlTemplate) Execute(data map[string]any, _ map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, cloneData(data)); err != nil {
		return "", classifyExecError(err)
	}
	return buf.String(), nil
}
