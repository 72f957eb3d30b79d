package views

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testTemplatesDir = "testdata/templates"
	testRenderWait   = 5 * time.Second
)

var testPartialsDir = filepath.Join(testTemplatesDir, "valid", "partials")

type renderResult struct {
	out string
	err error
}

// renderAndWait renders through the callback API and waits for the result.
func renderAndWait(t *testing.T, m *Manager, name any, args ...any) (string, error) {
	t.Helper()

	ch := make(chan renderResult, 2)
	args = append(args, func(out string, err error) {
		ch <- renderResult{out: out, err: err}
	})
	m.Render(name, args...)

	select {
	case r := <-ch:
		return r.out, r.err
	case <-time.After(testRenderWait):
		t.Fatal("render callback was not invoked")
		return "", nil
	}
}

// requireViewError asserts err is a *ViewError of the given kind.
func requireViewError(t *testing.T, err error, kind ErrorKind) *ViewError {
	t.Helper()

	require.Error(t, err)
	var ve *ViewError
	require.True(t, errors.As(err, &ve), "expected *ViewError, got %T", err)
	require.Equal(t, kind, ve.Kind, "unexpected kind for %q", ve.Message)
	require.True(t, IsUserFacing(err))
	return ve
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()

	if cfg.Path == "" {
		cfg.Path = testTemplatesDir
	}
	m, err := New(cfg, opts...)
	require.NoError(t, err)
	return m
}

// countingEngine wraps an engine and counts compile calls.
type countingEngine struct {
	Engine
	compiles atomic.Int32
}

func (e *countingEngine) Compile(name, source string, opts map[string]any) (Template, error) {
	e.compiles.Add(1)
	return e.Engine.Compile(name, source, opts)
}

// stubEngine compiles every source into a template that echoes it.
type stubEngine struct{}

func (stubEngine) Compile(_, source string, _ map[string]any) (Template, error) {
	return stubTemplate(source), nil
}

type stubTemplate string

func (t stubTemplate) Execute(map[string]any, map[string]any) (string, error) {
	return string(t), nil
}

// panicEngine panics on compile.
type panicEngine struct{}

func (panicEngine) Compile(string, string, map[string]any) (Template, error) {
	panic("compile exploded")
}

// chattyEngine reports completion twice for every asynchronous step.
type chattyEngine struct{}

func (chattyEngine) Compile(_, source string, _ map[string]any) (Template, error) {
	return chattyTemplate(source), nil
}

func (e chattyEngine) CompileAsync(name, source string, opts map[string]any, done CompileCallback) {
	tmpl, err := e.Compile(name, source, opts)
	go func() {
		done(tmpl, err)
		done(nil, errors.New("second compile completion"))
	}()
}

func (chattyEngine) RendersAsync() bool { return true }

type chattyTemplate string

func (t chattyTemplate) Execute(map[string]any, map[string]any) (string, error) {
	return string(t), nil
}

func (t chattyTemplate) ExecuteAsync(_ map[string]any, _ map[string]any, done ExecuteCallback) {
	go func() {
		done(string(t), nil)
		done("", errors.New("second render completion"))
	}()
}

// recordingEngine accepts partials and records their names.
type recordingEngine struct {
	stubEngine
	partials map[string]string
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{partials: make(map[string]string)}
}

func (e *recordingEngine) RegisterPartial(name, source string) error {
	e.partials[name] = source
	return nil
}

// explodingEngine compiles fine but panics when a template executes.
type explodingEngine struct{}

func (explodingEngine) Compile(string, string, map[string]any) (Template, error) {
	return explodingTemplate{}, nil
}

type explodingTemplate struct{}

func (explodingTemplate) Execute(map[string]any, map[string]any) (string, error) {
	panic("layout exploded")
}

// inlineEngine completes its asynchronous steps before returning.
type inlineEngine struct{}

func (inlineEngine) Compile(_, source string, _ map[string]any) (Template, error) {
	return inlineTemplate(source), nil
}

func (e inlineEngine) CompileAsync(name, source string, opts map[string]any, done CompileCallback) {
	done(e.Compile(name, source, opts))
}

func (inlineEngine) RendersAsync() bool { return true }

type inlineTemplate string

func (t inlineTemplate) Execute(map[string]any, map[string]any) (string, error) {
	return string(t), nil
}

func (t inlineTemplate) ExecuteAsync(_ map[string]any, _ map[string]any, done ExecuteCallback) {
	done(string(t), nil)
}
