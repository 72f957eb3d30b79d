package views

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// Error message constants - every user-visible message is a constant
const (
	ErrMsgInvalidTemplateName = "invalid template name"
	ErrMsgEmptyTemplateName   = "template name cannot be empty"
	ErrMsgReservedKeyword     = "context uses the reserved layout keyword"
	ErrMsgEngineNotFound      = "no engine registered for extension"
	ErrMsgTemplateNotFound    = "template not found"
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgUndefinedVariable   = "undefined variable"
	ErrMsgLayoutPrefix        = "layout"
	ErrMsgEnginePanic         = "engine panicked"
	ErrMsgMissingCallback     = "render requires a callback as its last argument"
	ErrMsgUnexpectedArgument  = "unexpected render argument"
	ErrMsgNilEngine           = "engine module cannot be nil"
	ErrMsgEmptyExtension      = "engine extension cannot be empty"
	ErrMsgEngineExists        = "engine already registered for extension"
	ErrMsgUnknownModule       = "unknown engine module"
	ErrMsgAsyncUnsupported    = "engine does not support the requested asynchronous mode"
	ErrMsgInvalidConfig       = "invalid view manager configuration"
	ErrMsgPartialsFailed      = "failed to load partials"
	ErrMsgSourceClosed        = "template source is closed"
	ErrMsgEmptyConnString     = "postgres connection string cannot be empty"
	ErrMsgPostgresConnect     = "failed to connect to postgres"
	ErrMsgWatchFailed         = "failed to watch template directory"
)

// Error format strings
const (
	ErrFmtWithCause  = "%s: %v"
	ErrFmtWithDetail = "%s: %s"
	ErrFmtTypeDetail = "%s: %T"
	ErrFmtLayout     = "%s %s"
)

// Error code constants for categorization
const (
	ErrCodeInvalidInput = "VIEWS_INVALID_INPUT"
	ErrCodeResolution   = "VIEWS_RESOLUTION"
	ErrCodeCompile      = "VIEWS_COMPILE"
	ErrCodeRender       = "VIEWS_RENDER"
	ErrCodeConfig       = "VIEWS_CONFIG"
)

// ErrorKind classifies where in the pipeline a failure originated.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "invalid_input"
	KindResolutionFailure ErrorKind = "resolution_failure"
	KindCompileFailure    ErrorKind = "compile_failure"
	KindRenderFailure     ErrorKind = "render_failure"
)

// code returns the cuserr code for the kind.
func (k ErrorKind) code() string {
	switch k {
	case KindInvalidInput:
		return ErrCodeInvalidInput
	case KindResolutionFailure:
		return ErrCodeResolution
	case KindCompileFailure:
		return ErrCodeCompile
	default:
		return ErrCodeRender
	}
}

func (k ErrorKind) message() string {
	switch k {
	case KindInvalidInput:
		return ErrMsgInvalidTemplateName
	case KindResolutionFailure:
		return ErrMsgEngineNotFound
	case KindCompileFailure:
		return ErrMsgCompileFailed
	default:
		return ErrMsgRenderFailed
	}
}

// Stage names the template a failure belongs to.
type Stage string

const (
	StageInput   Stage = "input"
	StageContent Stage = "content"
	StageLayout  Stage = "layout"
)

// ViewError is the normalized failure delivered to render callbacks.
// Every ViewError is user-facing; it unwraps to a *cuserr.CustomError that
// carries the error code and metadata for cuserr-aware handlers.
type ViewError struct {
	Kind     ErrorKind
	Stage    Stage
	Template string
	Message  string
	cause    error
}

// Error implements the error interface
func (e *ViewError) Error() string {
	return e.Message
}

// Unwrap exposes the categorized cuserr error.
func (e *ViewError) Unwrap() error {
	return e.cause
}

// UserFacing reports that the error may be shown to clients as-is.
func (e *ViewError) UserFacing() bool {
	return true
}

// ErrorContext tells Normalize what a raw error means.
type ErrorContext struct {
	Kind     ErrorKind
	Stage    Stage
	Template string
}

// Normalize converts any failure into a *ViewError. Errors that are already
// normalized pass through unchanged so a failure is never wrapped twice.
func Normalize(raw error, ec ErrorContext) *ViewError {
	if raw == nil {
		return nil
	}

	var existing *ViewError
	if errors.As(raw, &existing) {
		return existing
	}

	msg := composeMessage(raw, ec)
	custom := cuserr.WrapStdError(raw, ec.Kind.code(), msg).
		WithMetadata(MetaKeyKind, string(ec.Kind)).
		WithMetadata(MetaKeyStage, string(ec.Stage)).
		WithMetadata(MetaKeyTemplate, ec.Template).
		WithMetadata(MetaKeyUserFacing, MetaValueTrue)

	var undef *UndefinedVariableError
	if errors.As(raw, &undef) {
		custom = custom.WithMetadata(MetaKeyVariable, undef.Name)
	}

	return &ViewError{
		Kind:     ec.Kind,
		Stage:    ec.Stage,
		Template: ec.Template,
		Message:  msg,
		cause:    custom,
	}
}

func composeMessage(raw error, ec ErrorContext) string {
	var msg string

	var undef *UndefinedVariableError
	var notFound *TemplateNotFoundError
	switch {
	case errors.As(raw, &undef):
		msg = fmt.Sprintf(ErrFmtWithDetail, ErrMsgUndefinedVariable, undef.Name)
	case errors.As(raw, &notFound):
		msg = fmt.Sprintf(ErrFmtWithDetail, ErrMsgTemplateNotFound, notFound.Path)
	default:
		msg = fmt.Sprintf(ErrFmtWithCause, ec.Kind.message(), raw)
	}

	// undefined-variable messages keep their prefix so callers can match on it
	if ec.Stage == StageLayout && undef == nil {
		msg = fmt.Sprintf(ErrFmtLayout, ErrMsgLayoutPrefix, msg)
	}
	return msg
}

// newInputError builds an InvalidInput error that has no underlying cause.
func newInputError(msg string, template string) *ViewError {
	custom := cuserr.NewValidationError(ErrCodeInvalidInput, msg).
		WithMetadata(MetaKeyKind, string(KindInvalidInput)).
		WithMetadata(MetaKeyStage, string(StageInput)).
		WithMetadata(MetaKeyTemplate, template).
		WithMetadata(MetaKeyUserFacing, MetaValueTrue)
	return &ViewError{
		Kind:     KindInvalidInput,
		Stage:    StageInput,
		Template: template,
		Message:  msg,
		cause:    custom,
	}
}

// NewInvalidNameError reports a template name that is not a non-empty string.
func NewInvalidNameError(name any) *ViewError {
	if s, ok := name.(string); ok && s == "" {
		return newInputError(ErrMsgEmptyTemplateName, "")
	}
	return newInputError(fmt.Sprintf(ErrFmtTypeDetail, ErrMsgInvalidTemplateName, name), "")
}

// NewReservedKeywordError reports a context that already holds the layout keyword.
func NewReservedKeywordError(keyword, template string) *ViewError {
	ve := newInputError(fmt.Sprintf(ErrFmtWithDetail, ErrMsgReservedKeyword, keyword), template)
	var custom *cuserr.CustomError
	if errors.As(ve.cause, &custom) {
		ve.cause = custom.WithMetadata(MetaKeyKeyword, keyword)
	}
	return ve
}

// NewEngineNotFoundError reports an extension with no registered engine.
func NewEngineNotFoundError(ext, path string) *ViewError {
	custom := cuserr.NewNotFoundError(ErrCodeResolution, ErrMsgEngineNotFound).
		WithMetadata(MetaKeyKind, string(KindResolutionFailure)).
		WithMetadata(MetaKeyExtension, ext).
		WithMetadata(MetaKeyPath, path).
		WithMetadata(MetaKeyUserFacing, MetaValueTrue)
	return &ViewError{
		Kind:     KindResolutionFailure,
		Stage:    StageContent,
		Template: path,
		Message:  fmt.Sprintf(ErrFmtWithDetail, ErrMsgEngineNotFound, ext),
		cause:    custom,
	}
}

// IsUserFacing reports whether err is a normalized, client-presentable error.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var ve *ViewError
	if errors.As(err, &ve) {
		return ve.UserFacing()
	}
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		v, ok := custom.GetMetadata(MetaKeyUserFacing)
		return ok && v == MetaValueTrue
	}
	return false
}

// KindOf returns the kind of a normalized error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var ve *ViewError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// TemplateNotFoundError is returned by sources when a template cannot be read.
type TemplateNotFoundError struct {
	Path  string
	Cause error
}

// Error implements the error interface
func (e *TemplateNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf(ErrFmtWithCause, ErrMsgTemplateNotFound, e.Cause)
	}
	return fmt.Sprintf(ErrFmtWithDetail, ErrMsgTemplateNotFound, e.Path)
}

// Unwrap returns the underlying read error.
func (e *TemplateNotFoundError) Unwrap() error {
	return e.Cause
}

// UndefinedVariableError is returned by engines when a template references a
// variable the render context does not define.
type UndefinedVariableError struct {
	Name  string
	Cause error
}

// Error implements the error interface
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf(ErrFmtWithDetail, ErrMsgUndefinedVariable, e.Name)
}

// Unwrap returns the engine's original error.
func (e *UndefinedVariableError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid manager or engine configuration.
type ConfigError struct {
	Message string
	Field   string
	Cause   error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, e.Field)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf(ErrFmtWithCause, ErrMsgEnginePanic, err)
	}
	return fmt.Errorf("%s: %v", ErrMsgEnginePanic, r)
}
