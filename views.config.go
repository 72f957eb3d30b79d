package views

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EngineConfig binds a file extension to an engine adapter.
type EngineConfig struct {
	// Extension is matched case-sensitively against the resolved file
	// extension, without the leading dot.
	Extension string `yaml:"extension"`

	// Module is the engine adapter. When nil, ModuleName selects a built-in.
	Module     Engine `yaml:"-"`
	ModuleName string `yaml:"module"`

	CompileOptions map[string]any `yaml:"compileOptions,omitempty"`
	RenderOptions  map[string]any `yaml:"renderOptions,omitempty"`

	// AsyncCompile and AsyncRender request callback-based completion. The
	// engine must declare the matching capability.
	AsyncCompile bool `yaml:"asyncCompile"`
	AsyncRender  bool `yaml:"asyncRender"`

	// ContentType is reported to the response layer. Default: text/html.
	ContentType string `yaml:"contentType,omitempty"`

	// Sanitize passes rendered content through the UGC HTML policy.
	Sanitize bool `yaml:"sanitize"`
}

// PartialsConfig locates reusable template fragments.
type PartialsConfig struct {
	Path string `yaml:"path"`
}

// Config is the view manager configuration. It is copied at construction
// and never mutated afterwards.
type Config struct {
	// Path is the base directory template names are resolved against.
	Path string `yaml:"path"`

	// DefaultExtension is appended to names without an extension.
	// Default: the only engine's extension, else "html".
	DefaultExtension string `yaml:"defaultExtension"`

	Layout        bool   `yaml:"layout"`
	LayoutFile    string `yaml:"layoutFile"`
	LayoutKeyword string `yaml:"layoutKeyword"`

	Partials PartialsConfig `yaml:"partials"`

	// Cache enables the compile cache. nil means enabled.
	Cache *bool `yaml:"cache"`

	// AsyncCompile and AsyncRender apply to every engine that supports them.
	AsyncCompile bool `yaml:"asyncCompile"`
	AsyncRender  bool `yaml:"asyncRender"`

	Engines []EngineConfig `yaml:"engines"`
}

// CacheEnabled reports whether compiled templates are memoized.
func (c Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// Bool returns a pointer to b, for optional configuration fields.
func Bool(b bool) *bool {
	return &b
}

// clone returns a deep enough copy that callers cannot mutate the manager's view.
func (c Config) clone() Config {
	out := c
	if c.Cache != nil {
		out.Cache = Bool(*c.Cache)
	}
	out.Engines = make([]EngineConfig, len(c.Engines))
	copy(out.Engines, c.Engines)
	return out
}

// LoadConfig reads a YAML configuration file, applies defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Message: ErrMsgInvalidConfig, Field: path, Cause: err}
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration, applies defaults and validates it.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Message: ErrMsgInvalidConfig, Cause: err}
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields and instantiates built-in engine modules.
func ApplyDefaults(cfg *Config) error {
	if len(cfg.Engines) == 0 {
		cfg.Engines = []EngineConfig{{ModuleName: DefaultEngineModule}}
	}

	for i := range cfg.Engines {
		ec := &cfg.Engines[i]
		ec.Extension = strings.TrimPrefix(strings.TrimSpace(ec.Extension), ".")
		if ec.Module == nil {
			name := ec.ModuleName
			if name == "" {
				name = DefaultEngineModule
			}
			module, defaults, err := builtinModule(name, cfg.Path)
			if err != nil {
				return err
			}
			ec.Module = module
			ec.ModuleName = name
			ec.CompileOptions = mergeOptions(defaults, ec.CompileOptions)
		}
		if ec.Extension == "" && len(cfg.Engines) == 1 && cfg.DefaultExtension != "" {
			ec.Extension = strings.TrimPrefix(cfg.DefaultExtension, ".")
		}
		if ec.Extension == "" && ec.ModuleName == DefaultEngineModule {
			ec.Extension = DefaultExtension
		}
	}

	if cfg.DefaultExtension == "" {
		if len(cfg.Engines) == 1 && cfg.Engines[0].Extension != "" {
			cfg.DefaultExtension = cfg.Engines[0].Extension
		} else {
			cfg.DefaultExtension = DefaultExtension
		}
	}
	cfg.DefaultExtension = strings.TrimPrefix(cfg.DefaultExtension, ".")

	if cfg.LayoutFile == "" {
		cfg.LayoutFile = DefaultLayoutFile
	}
	if cfg.LayoutKeyword == "" {
		cfg.LayoutKeyword = DefaultLayoutKeyword
	}
	return nil
}

// Validate checks engine definitions. Call after ApplyDefaults.
func Validate(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Engines))
	for _, ec := range cfg.Engines {
		if ec.Module == nil {
			return &ConfigError{Message: ErrMsgNilEngine, Field: ec.Extension}
		}
		if ec.Extension == "" {
			return &ConfigError{Message: ErrMsgEmptyExtension, Field: ec.ModuleName}
		}
		if _, dup := seen[ec.Extension]; dup {
			return &ConfigError{Message: ErrMsgEngineExists, Field: ec.Extension}
		}
		seen[ec.Extension] = struct{}{}

		caps := CapabilitiesOf(ec.Module)
		if ec.AsyncCompile && !caps.AsyncCompile {
			return &ConfigError{Message: ErrMsgAsyncUnsupported, Field: ec.Extension + ".asyncCompile"}
		}
		if ec.AsyncRender && !caps.AsyncRender {
			return &ConfigError{Message: ErrMsgAsyncUnsupported, Field: ec.Extension + ".asyncRender"}
		}
	}
	return nil
}

// builtinModule instantiates a named adapter and its default compile options.
func builtinModule(name, basePath string) (Engine, map[string]any, error) {
	switch name {
	case ModuleNameHTML:
		return NewHTMLEngine(nil), nil, nil
	case ModuleNameText:
		return NewTextEngine(nil), nil, nil
	case ModuleNamePongo2:
		e, err := NewPongo2Engine(basePath)
		if err != nil {
			return nil, nil, &ConfigError{Message: ErrMsgInvalidConfig, Field: name, Cause: err}
		}
		return e, nil, nil
	case ModuleNameAsync:
		return NewAsyncEngine(NewHTMLEngine(nil)), nil, nil
	case ModuleNameAsyncText:
		return NewAsyncEngine(NewTextEngine(nil)), map[string]any{CompileOptMissingKey: MissingKeyError}, nil
	default:
		return nil, nil, &ConfigError{Message: ErrMsgUnknownModule, Field: fmt.Sprintf("%q", name)}
	}
}
