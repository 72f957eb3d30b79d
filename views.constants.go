package views

import "time"

// Configuration defaults
const (
	DefaultExtension     = "html"
	DefaultLayoutFile    = "layout"
	DefaultLayoutKeyword = "content"
	DefaultContentType   = "text/html"
	DefaultEngineModule  = ModuleNameHTML
)

// Built-in engine module names, usable from YAML configuration
const (
	ModuleNameHTML      = "html"
	ModuleNameText      = "text"
	ModuleNamePongo2    = "pongo2"
	ModuleNameAsync     = "async"
	ModuleNameAsyncText = "async-text"
)

// Compile option keys understood by the Go template adapters
const (
	CompileOptMissingKey = "missingkey"
	CompileOptLeftDelim  = "leftDelim"
	CompileOptRightDelim = "rightDelim"
	CompileOptFuncs      = "funcs"
)

// Missing key policies for text/template and html/template
const (
	MissingKeyDefault = "default"
	MissingKeyZero    = "zero"
	MissingKeyError   = "error"
)

// Context keys exposed by the HTTP response wrapper
const (
	ContextKeyParams = "params"
	ContextKeyQuery  = "query"
)

// HTTP header constants
const (
	HeaderContentType = "Content-Type"
)

// Watcher defaults
const (
	DefaultWatchDebounce = 100 * time.Millisecond
)

// Postgres source defaults
const (
	PostgresDriverName          = "postgres"
	PostgresTablePrefix         = "views_"
	PostgresTableTemplates      = "templates"
	PostgresDefaultQueryTimeout = 30 * time.Second
)

// Metric names
const (
	MetricsNamespace        = "views"
	MetricRendersTotal      = "renders_total"
	MetricRenderDuration    = "render_duration_seconds"
	MetricCompilesTotal     = "compiles_total"
	MetricCacheHitsTotal    = "cache_hits_total"
	MetricCacheMissesTotal  = "cache_misses_total"
	MetricErrorsTotal       = "errors_total"
	MetricLabelEngine       = "engine"
	MetricLabelResult       = "result"
	MetricLabelKind         = "kind"
	MetricLabelStage        = "stage"
	MetricResultSuccess     = "success"
	MetricResultFailure     = "failure"
	MetricHelpRenders       = "Total number of render calls by engine and result"
	MetricHelpRenderSeconds = "Render latency in seconds, including layout composition"
	MetricHelpCompiles      = "Total number of template compilations by engine"
	MetricHelpCacheHits     = "Total number of compile cache hits"
	MetricHelpCacheMisses   = "Total number of compile cache misses"
	MetricHelpErrors        = "Total number of normalized render errors by kind and stage"
)

// Log messages
const (
	LogMsgManagerCreated     = "view manager created"
	LogMsgEngineRegistered   = "engine registered"
	LogMsgRenderStart        = "render started"
	LogMsgRenderDone         = "render complete"
	LogMsgRenderFailed       = "render failed"
	LogMsgStateTransition    = "render state transition"
	LogMsgCacheHit           = "compile cache hit"
	LogMsgCacheMiss          = "compile cache miss"
	LogMsgCacheInvalidated   = "compile cache entry invalidated"
	LogMsgCachePurged        = "compile cache purged"
	LogMsgPartialRegistered  = "partial registered"
	LogMsgPartialSkipped     = "engine does not support partials, skipping"
	LogMsgPartialsLoaded     = "partials loaded"
	LogMsgWatcherStarted     = "template watcher started"
	LogMsgWatcherStopped     = "template watcher stopped"
	LogMsgWatcherEvent       = "template change detected"
	LogMsgWatcherError       = "template watcher error"
	LogMsgSyncFaultEscalated = "reserved key collision escalated as panic in synchronous mode"
	LogMsgResponseFailed     = "view response failed"
)

// Log field names
const (
	LogFieldRenderID  = "render_id"
	LogFieldTemplate  = "template"
	LogFieldPath      = "path"
	LogFieldExtension = "extension"
	LogFieldEngine    = "engine"
	LogFieldState     = "state"
	LogFieldLayout    = "layout"
	LogFieldPartial   = "partial"
	LogFieldCount     = "count"
	LogFieldKind      = "kind"
	LogFieldStage     = "stage"
	LogFieldAsync     = "async"
	LogFieldDuration  = "duration"
	LogFieldOp        = "op"
)

// Metadata keys attached to normalized errors
const (
	MetaKeyKind       = "kind"
	MetaKeyStage      = "stage"
	MetaKeyTemplate   = "template"
	MetaKeyPath       = "path"
	MetaKeyExtension  = "extension"
	MetaKeyKeyword    = "keyword"
	MetaKeyVariable   = "variable"
	MetaKeyUserFacing = "user_facing"
	MetaValueTrue     = "true"
)

// Version information
const (
	Version = "v0.4.0"
)
