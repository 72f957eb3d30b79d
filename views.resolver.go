package views

import (
	"path"
	"path/filepath"
	"strings"
)

// ResolvedTemplate is the outcome of resolving a template name.
type ResolvedTemplate struct {
	// Name is the name the caller asked for.
	Name string
	// RelPath is Name plus extension, slash-separated, relative to the base path.
	RelPath string
	// AbsPath is the absolute file path; it keys the compile cache.
	AbsPath   string
	Extension string
	Engine    *EngineEntry
}

// Resolver turns template names into paths and engines. It never touches
// the file system: a missing file surfaces later as a compile failure.
type Resolver struct {
	basePath   string
	defaultExt string
	registry   *Registry
}

// NewResolver creates a resolver over basePath.
func NewResolver(basePath, defaultExt string, registry *Registry) *Resolver {
	return &Resolver{
		basePath:   basePath,
		defaultExt: strings.TrimPrefix(defaultExt, "."),
		registry:   registry,
	}
}

// Resolve validates name and selects its engine.
func (r *Resolver) Resolve(name any) (*ResolvedTemplate, *ViewError) {
	s, ok := name.(string)
	if !ok || s == "" {
		return nil, NewInvalidNameError(name)
	}

	rel := filepath.ToSlash(s)
	ext := strings.TrimPrefix(path.Ext(rel), ".")
	if ext == "" {
		ext = r.defaultExt
		rel = rel + "." + ext
	}

	entry, found := r.registry.Resolve(ext)
	if !found {
		return nil, NewEngineNotFoundError(ext, rel)
	}

	joined := filepath.Join(r.basePath, filepath.FromSlash(rel))
	abs, err := filepath.Abs(joined)
	if err != nil {
		abs = joined
	}

	return &ResolvedTemplate{
		Name:      s,
		RelPath:   rel,
		AbsPath:   abs,
		Extension: ext,
		Engine:    entry,
	}, nil
}
