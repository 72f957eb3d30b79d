package views

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
)

const pongo2SetName = "views"

// Pongo2Engine adapts github.com/flosch/pongo2 (Django template syntax).
// It has no partial registration: fragments are pulled in with
// {% include %} through the set's loader instead, so the partial loader
// skips it. Layouts must print content with {{ content|safe }}.
type Pongo2Engine struct {
	set *pongo2.TemplateSet
}

// NewPongo2Engine creates a pongo2 adapter. baseDir, when set, is where
// {% include %} and {% extends %} look for templates.
func NewPongo2Engine(baseDir string) (*Pongo2Engine, error) {
	var loaders []pongo2.TemplateLoader
	if baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo2: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if len(loaders) == 0 {
		return &Pongo2Engine{set: pongo2.DefaultSet}, nil
	}
	return &Pongo2Engine{set: pongo2.NewSet(pongo2SetName, loaders...)}, nil
}

// Compile parses source with the configured template set.
func (e *Pongo2Engine) Compile(name, source string, _ map[string]any) (Template, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("pongo2: parse %q: %w", name, err)
	}
	return &pongo2Template{tmpl: tmpl}, nil
}

type pongo2Template struct {
	tmpl *pongo2.Template
}

func (t *pongo2Template) Execute(data map[string]any, _ map[string]any) (string, error) {
	return t.tmpl.Execute(pongo2.Context(cloneData(data)))
}
