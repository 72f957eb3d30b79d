// Package views renders named templates through pluggable template engines,
// selected by file extension, with compile caching, partials and layouts.
//
// # Basic Usage
//
// Create a manager over a template directory and render by name:
//
//	m := views.MustNew(views.Config{Path: "templates"})
//	m.Render("users/show", map[string]any{"name": "Alice"}, func(out string, err error) {
//	    // out is the rendered users/show.html
//	})
//
// RenderString is the blocking form:
//
//	out, err := m.RenderString(ctx, "users/show", data, nil)
//
// # Engines
//
// Any type implementing Engine can be registered for an extension. Optional
// interfaces declare further capabilities: AsyncCompiler and AsyncTemplate
// for engines that complete through callbacks, PartialRegistrar for engines
// that accept shared fragments, ContentWrapper to control how rendered
// content is bound into a layout.
//
//	m, err := views.New(views.Config{
//	    Path: "templates",
//	    Engines: []views.EngineConfig{
//	        {Extension: "html", Module: views.NewHTMLEngine(nil)},
//	        {Extension: "txt", Module: views.NewTextEngine(nil)},
//	    },
//	})
//
// Built-in engines can also be selected by name from YAML configuration:
// html, text, pongo2, async and async-text.
//
// The html and text engines share a set of helpers that compose in
// pipelines, for example {{ .name | default "guest" }}, {{ .tags | join ", " }}
// and {{ .created | formatDate "2006-01-02" }}. Funcs passed to NewHTMLEngine
// or NewTextEngine add to or replace them.
//
// # Layouts
//
// With Layout enabled, rendered content is bound under the layout keyword
// ("content" by default) and the layout file is rendered around it:
//
//	<body>{{ .content }}</body>
//
// A data map that already uses the keyword is rejected.
//
// # Errors
//
// Every failure reaches the callback as a *ViewError with a Kind
// (invalid_input, resolution_failure, compile_failure, render_failure) and
// a Stage. ViewError unwraps to a go-cuserr error carrying a VIEWS_* code.
//
// # Configuration
//
// Collaborators are set with functional options:
//
//	m, _ := views.New(cfg,
//	    views.WithLogger(logger),
//	    views.WithMetrics(prometheus.DefaultRegisterer),
//	    views.WithSource(views.NewFSSource(embedded, "templates")),
//	)
package views
