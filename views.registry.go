package views

import (
	"go.uber.org/zap"
)

// EngineEntry is an engine registered under one extension, with its
// effective asynchronous modes resolved against the manager flags.
type EngineEntry struct {
	Config       EngineConfig
	Capabilities Capabilities
	AsyncCompile bool
	AsyncRender  bool
}

// ContentType returns the content type the engine declares, or text/html.
func (e *EngineEntry) ContentType() string {
	if e.Config.ContentType != "" {
		return e.Config.ContentType
	}
	return DefaultContentType
}

// Registry maps file extensions to engine adapters. It is built once per
// manager and is read-only afterwards, so lookups need no locking.
type Registry struct {
	engines map[string]*EngineEntry
	order   []string
	logger  *zap.Logger
}

// NewRegistry builds a registry from validated engine configurations.
// Manager-level async flags enable async modes on every capable engine.
func NewRegistry(engines []EngineConfig, asyncCompile, asyncRender bool, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		engines: make(map[string]*EngineEntry, len(engines)),
		logger:  logger,
	}
	for _, ec := range engines {
		if err := r.register(ec, asyncCompile, asyncRender); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(ec EngineConfig, asyncCompile, asyncRender bool) error {
	if ec.Module == nil {
		return &ConfigError{Message: ErrMsgNilEngine, Field: ec.Extension}
	}
	if ec.Extension == "" {
		return &ConfigError{Message: ErrMsgEmptyExtension, Field: ec.ModuleName}
	}
	if existing, exists := r.engines[ec.Extension]; exists {
		r.logger.Warn(ErrMsgEngineExists,
			zap.String(LogFieldExtension, ec.Extension),
			zap.String(LogFieldEngine, existing.Config.ModuleName),
		)
		return &ConfigError{Message: ErrMsgEngineExists, Field: ec.Extension}
	}

	caps := CapabilitiesOf(ec.Module)
	entry := &EngineEntry{
		Config:       ec,
		Capabilities: caps,
		AsyncCompile: caps.AsyncCompile && (ec.AsyncCompile || asyncCompile),
		AsyncRender:  caps.AsyncRender && (ec.AsyncRender || asyncRender),
	}
	r.engines[ec.Extension] = entry
	r.order = append(r.order, ec.Extension)

	r.logger.Debug(LogMsgEngineRegistered,
		zap.String(LogFieldExtension, ec.Extension),
		zap.String(LogFieldEngine, ec.ModuleName),
		zap.Bool(LogFieldAsync, entry.AsyncCompile || entry.AsyncRender),
	)
	return nil
}

// Resolve returns the engine for ext. When nothing matches and exactly one
// engine is configured, that engine is used.
func (r *Registry) Resolve(ext string) (*EngineEntry, bool) {
	if entry, ok := r.engines[ext]; ok {
		return entry, true
	}
	if len(r.order) == 1 {
		return r.engines[r.order[0]], true
	}
	return nil, false
}

// Entries returns the registered engines in configuration order.
func (r *Registry) Entries() []*EngineEntry {
	out := make([]*EngineEntry, 0, len(r.order))
	for _, ext := range r.order {
		out = append(out, r.engines[ext])
	}
	return out
}

// Extensions returns the registered extensions in configuration order.
func (r *Registry) Extensions() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered engines.
func (r *Registry) Count() int {
	return len(r.order)
}

// AnyAsync reports whether any engine completes asynchronously.
func (r *Registry) AnyAsync() bool {
	for _, entry := range r.engines {
		if entry.AsyncCompile || entry.AsyncRender {
			return true
		}
	}
	return false
}
