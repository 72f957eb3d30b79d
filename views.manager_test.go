package views

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mapSource serves template source from memory, keyed by relative path.
type mapSource map[string]string

func (s mapSource) ReadTemplate(_ context.Context, rt *ResolvedTemplate) ([]byte, error) {
	src, ok := s[rt.RelPath]
	if !ok {
		return nil, &TemplateNotFoundError{Path: rt.RelPath}
	}
	return []byte(src), nil
}

// hungEngine never completes an asynchronous compile.
type hungEngine struct{ stubEngine }

func (hungEngine) CompileAsync(string, string, map[string]any, CompileCallback) {}

func asyncTextConfig() Config {
	return Config{
		Path: testTemplatesDir,
		Engines: []EngineConfig{
			{Extension: "tmpl", ModuleName: ModuleNameAsyncText, AsyncCompile: true, AsyncRender: true},
		},
	}
}

func TestRender_NoVarsWithoutContextOrOptions(t *testing.T) {
	m := newTestManager(t, Config{})

	out, err := renderAndWait(t, m, "valid/novars")

	require.NoError(t, err)
	assert.Equal(t, "<div>Hello, World!</div>\n", out)
}

func TestRender_ArgumentShapes(t *testing.T) {
	m := newTestManager(t, Config{})
	data := map[string]any{"message": "hi"}

	tests := []struct {
		name string
		args []any
		want string
	}{
		{"data", []any{data}, "<div>hi</div>\n"},
		{"data and options", []any{data, &CallOptions{}}, "<div>hi</div>\n"},
		{"options and data", []any{CallOptions{}, data}, "<div>hi</div>\n"},
		{"nil data", []any{nil}, "<div></div>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := renderAndWait(t, m, "valid/test", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRender_AcceptsNamedCallbackType(t *testing.T) {
	m := newTestManager(t, Config{})

	var got string
	m.Render("valid/novars", Callback(func(out string, err error) {
		require.NoError(t, err)
		got = out
	}))
	assert.NotEmpty(t, got)
}

func TestRender_UnexpectedArgument(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := renderAndWait(t, m, "valid/test", "not a map")

	ve := requireViewError(t, err, KindInvalidInput)
	assert.Contains(t, ve.Message, ErrMsgUnexpectedArgument)
}

func TestRender_MissingCallbackPanics(t *testing.T) {
	m := newTestManager(t, Config{})

	assert.PanicsWithValue(t, ErrMsgMissingCallback, func() {
		m.Render("valid/novars")
	})
	assert.PanicsWithValue(t, ErrMsgMissingCallback, func() {
		m.Render("valid/novars", map[string]any{})
	})
	assert.PanicsWithValue(t, ErrMsgMissingCallback, func() {
		m.RenderWith("valid/novars", nil, nil, nil)
	})
}

func TestRender_NonStringName(t *testing.T) {
	for _, name := range []any{func() {}, nil, 7, ""} {
		m := newTestManager(t, Config{})
		_, err := renderAndWait(t, m, name)
		requireViewError(t, err, KindInvalidInput)
	}
}

func TestRender_NonStringNameAsync(t *testing.T) {
	m := newTestManager(t, asyncTextConfig())

	_, err := renderAndWait(t, m, map[string]any{})
	requireViewError(t, err, KindInvalidInput)
}

func TestRender_BadSyntaxIsCompileFailure(t *testing.T) {
	m := newTestManager(t, Config{})

	out, err := renderAndWait(t, m, "invalid/badmustache")

	assert.Empty(t, out)
	ve := requireViewError(t, err, KindCompileFailure)
	assert.Equal(t, StageContent, ve.Stage)
	assert.Equal(t, "invalid/badmustache", ve.Template)
}

func TestRender_MissingTemplateIsCompileFailure(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := renderAndWait(t, m, "invalid/missing")

	ve := requireViewError(t, err, KindCompileFailure)
	assert.Equal(t, "template not found: invalid/missing.html", ve.Message)
}

func TestRender_UndefinedTemplateReference(t *testing.T) {
	m := newTestManager(t, Config{})

	out, err := renderAndWait(t, m, "invalid/test")

	assert.Empty(t, out)
	require.Error(t, err)
	assert.True(t, IsUserFacing(err))
}

func TestRender_UnknownExtension(t *testing.T) {
	m := newTestManager(t, Config{Engines: []EngineConfig{
		{Extension: "html", Module: NewHTMLEngine(nil)},
		{Extension: "tmpl", Module: NewTextEngine(nil)},
	}})

	_, err := renderAndWait(t, m, "valid/test.jade")
	requireViewError(t, err, KindResolutionFailure)
}

func TestRender_WithLayout(t *testing.T) {
	m := newTestManager(t, Config{Layout: true})

	out, err := renderAndWait(t, m, "valid/test", map[string]any{"message": "<hi>"})

	require.NoError(t, err)
	assert.Equal(t, "<html><body><div>&lt;hi&gt;</div>\n</body></html>\n", out)
}

func TestRender_LayoutSeesCallerContext(t *testing.T) {
	m := newTestManager(t, Config{Layout: true, LayoutFile: "valid/titledLayout"})
	data := map[string]any{"message": "hi", "title": "Home"}

	out, err := renderAndWait(t, m, "valid/test", data)

	require.NoError(t, err)
	assert.Equal(t, "<html><body><div>hi</div>\n Home</body></html>\n", out)
	assert.NotContains(t, data, DefaultLayoutKeyword, "caller data must not be modified")
}

func TestRender_PerCallLayoutOverrides(t *testing.T) {
	m := newTestManager(t, Config{Layout: true})

	out, err := renderAndWait(t, m, "valid/novars", &CallOptions{LayoutFile: "valid/otherLayout"})
	require.NoError(t, err)
	assert.Equal(t, "<main><div>Hello, World!</div>\n</main>\n", out)

	out, err = renderAndWait(t, m, "valid/novars", &CallOptions{Layout: Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, "<div>Hello, World!</div>\n", out)

	plain := newTestManager(t, Config{})
	out, err = renderAndWait(t, plain, "valid/novars", &CallOptions{Layout: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "<html><body><div>Hello, World!</div>\n</body></html>\n", out)
}

func TestRender_MissingLayout(t *testing.T) {
	m := newTestManager(t, Config{Layout: true, LayoutFile: "invalid/missing"})

	out, err := renderAndWait(t, m, "valid/novars")

	assert.Empty(t, out)
	ve := requireViewError(t, err, KindCompileFailure)
	assert.Equal(t, StageLayout, ve.Stage)
	assert.True(t, strings.HasPrefix(ve.Message, ErrMsgLayoutPrefix))
}

func TestRender_ContentFailureSkipsLayout(t *testing.T) {
	engine := &countingEngine{Engine: NewHTMLEngine(nil)}
	m := newTestManager(t, Config{
		Layout:  true,
		Engines: []EngineConfig{{Extension: "html", Module: engine}},
	})

	_, err := renderAndWait(t, m, "invalid/badmustache")

	ve := requireViewError(t, err, KindCompileFailure)
	assert.Equal(t, StageContent, ve.Stage)
	assert.Equal(t, int32(1), engine.compiles.Load(), "layout must not be compiled")
}

func TestRender_ReservedKeywordPanicsInSyncManager(t *testing.T) {
	m := newTestManager(t, Config{Layout: true})

	var called atomic.Bool
	defer func() {
		r := recover()
		require.NotNil(t, r)
		ve, ok := r.(*ViewError)
		require.True(t, ok, "panic value should be *ViewError, got %T", r)
		assert.Equal(t, KindInvalidInput, ve.Kind)
		assert.True(t, ve.UserFacing())
		assert.False(t, called.Load())
	}()

	m.Render("valid/test", map[string]any{"content": "x"}, func(string, error) {
		called.Store(true)
	})
	t.Fatal("render should have panicked")
}

func TestRender_ReservedKeywordViaCallbackInAsyncManager(t *testing.T) {
	engine := &countingEngine{Engine: stubEngine{}}
	cfg := asyncTextConfig()
	cfg.Layout = true
	cfg.Engines = append(cfg.Engines, EngineConfig{Extension: "html", Module: engine})
	m := newTestManager(t, cfg)

	_, err := renderAndWait(t, m, "valid/test.html", map[string]any{"content": "x"})

	ve := requireViewError(t, err, KindInvalidInput)
	assert.Contains(t, ve.Message, ErrMsgReservedKeyword)
	assert.Equal(t, int32(0), engine.compiles.Load(), "no template may be compiled")
}

func TestRender_ReservedKeywordAllowedWithoutLayout(t *testing.T) {
	m := newTestManager(t, Config{})

	out, err := renderAndWait(t, m, "valid/test", map[string]any{"content": "x", "message": "m"})

	require.NoError(t, err)
	assert.Equal(t, "<div>m</div>\n", out)
}

func TestRender_CustomLayoutKeyword(t *testing.T) {
	m := newTestManager(t, Config{Layout: true, LayoutKeyword: "body"}, WithSource(mapSource{
		"page.html":   "<p>{{.content}}</p>",
		"layout.html": "<main>{{.body}}</main>",
	}))

	out, err := renderAndWait(t, m, "page", map[string]any{"content": "kept"})

	require.NoError(t, err)
	assert.Equal(t, "<main><p>kept</p></main>", out)
}

func TestRenderString_RecoversSyncFaults(t *testing.T) {
	m := newTestManager(t, Config{Layout: true})

	_, err := m.RenderString(context.Background(), "valid/test", map[string]any{"content": "x"}, nil)
	requireViewError(t, err, KindInvalidInput)

	panicky := newTestManager(t, Config{Engines: []EngineConfig{{Extension: "html", Module: panicEngine{}}}})
	assert.Panics(t, func() {
		panicky.Render("valid/novars", func(string, error) {})
	})

	_, err = panicky.RenderString(context.Background(), "valid/novars", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUserFacing(err))
	assert.Contains(t, err.Error(), ErrMsgEnginePanic)
}

func TestRenderString_ContextEndsFirst(t *testing.T) {
	m := newTestManager(t, Config{
		Engines: []EngineConfig{{Extension: "html", Module: hungEngine{}, AsyncCompile: true}},
	}, WithSource(mapSource{"page.html": "x"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.RenderString(ctx, "page", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRender_AsyncUndefinedVariable(t *testing.T) {
	m := newTestManager(t, asyncTextConfig())

	out, err := renderAndWait(t, m, "async/incorrect")

	assert.Empty(t, out)
	ve := requireViewError(t, err, KindRenderFailure)
	assert.True(t, strings.HasPrefix(ve.Message, ErrMsgUndefinedVariable), ve.Message)
	assert.Contains(t, ve.Message, "undefinedVariable")
}

func TestRender_AsyncWithLayout(t *testing.T) {
	cfg := asyncTextConfig()
	cfg.Layout = true
	cfg.LayoutFile = "async/layout"
	m := newTestManager(t, cfg)

	out, err := renderAndWait(t, m, "async/valid", map[string]any{"name": "Ann"})

	require.NoError(t, err)
	assert.Equal(t, "[Hello Ann]", out)
}

func TestRender_AsyncCompileFailure(t *testing.T) {
	m := newTestManager(t, asyncTextConfig())

	_, err := renderAndWait(t, m, "async/uncompiled")
	requireViewError(t, err, KindCompileFailure)

	_, err = renderAndWait(t, m, "async/absent")
	requireViewError(t, err, KindCompileFailure)
}

func TestRender_AsyncEnginePanicDeliveredToCallback(t *testing.T) {
	m := newTestManager(t, Config{Engines: []EngineConfig{
		{Extension: "html", Module: NewAsyncEngine(panicEngine{}), AsyncCompile: true, AsyncRender: true},
	}})

	_, err := renderAndWait(t, m, "valid/novars")

	ve := requireViewError(t, err, KindCompileFailure)
	assert.Contains(t, ve.Message, ErrMsgEnginePanic)
}

func TestRender_AsyncContentThenPanickingLayout(t *testing.T) {
	m := newTestManager(t, Config{
		Layout: true,
		Engines: []EngineConfig{
			{Extension: "tmpl", ModuleName: ModuleNameAsyncText, AsyncCompile: true, AsyncRender: true},
			{Extension: "html", Module: explodingEngine{}},
		},
	})

	var err error
	require.NotPanics(t, func() {
		_, err = renderAndWait(t, m, "async/valid.tmpl", map[string]any{"name": "Ann"})
	})

	ve := requireViewError(t, err, KindRenderFailure)
	assert.Equal(t, StageLayout, ve.Stage)
	assert.Contains(t, ve.Message, ErrMsgEnginePanic)
}

func TestRender_InlineAsyncCompletionThenPanickingLayout(t *testing.T) {
	m := newTestManager(t, Config{
		Layout: true,
		Engines: []EngineConfig{
			{Extension: "tmpl", Module: inlineEngine{}, AsyncCompile: true, AsyncRender: true},
			{Extension: "html", Module: explodingEngine{}},
		},
	})

	var err error
	require.NotPanics(t, func() {
		_, err = renderAndWait(t, m, "async/valid.tmpl")
	})

	ve := requireViewError(t, err, KindRenderFailure)
	assert.Equal(t, StageLayout, ve.Stage)
	assert.Contains(t, ve.Message, ErrMsgEnginePanic)
}

func TestRender_InlineAsyncCompletion(t *testing.T) {
	m := newTestManager(t, Config{
		Layout: true,
		Engines: []EngineConfig{
			{Extension: "tmpl", Module: inlineEngine{}, AsyncCompile: true, AsyncRender: true},
			{Extension: "html", ModuleName: ModuleNameHTML},
		},
	})

	out, err := renderAndWait(t, m, "async/valid.tmpl")

	require.NoError(t, err)
	assert.Equal(t, "<html><body>Hello {{.name}}</body></html>\n", out)
	assert.Equal(t, 2, m.CachedCount())
}

func TestRender_SyncEnginePanicInAsyncManagerReachesCallback(t *testing.T) {
	m := newTestManager(t, Config{Engines: []EngineConfig{
		{Extension: "tmpl", ModuleName: ModuleNameAsyncText, AsyncCompile: true, AsyncRender: true},
		{Extension: "html", Module: panicEngine{}},
	}})

	var err error
	require.NotPanics(t, func() {
		_, err = renderAndWait(t, m, "valid/novars")
	})

	ve := requireViewError(t, err, KindCompileFailure)
	assert.Equal(t, StageContent, ve.Stage)
	assert.Contains(t, ve.Message, ErrMsgEnginePanic)
}

func TestRender_SyncExecutePanicInAsyncManagerReachesCallback(t *testing.T) {
	m := newTestManager(t, Config{Engines: []EngineConfig{
		{Extension: "tmpl", ModuleName: ModuleNameAsyncText, AsyncCompile: true, AsyncRender: true},
		{Extension: "html", Module: explodingEngine{}},
	}})

	var err error
	require.NotPanics(t, func() {
		_, err = renderAndWait(t, m, "valid/novars")
	})

	ve := requireViewError(t, err, KindRenderFailure)
	assert.Equal(t, StageContent, ve.Stage)
}

func TestRender_CallbackInvokedOnce(t *testing.T) {
	m := newTestManager(t, Config{
		Engines: []EngineConfig{{Extension: "html", Module: chattyEngine{}, AsyncCompile: true, AsyncRender: true}},
	}, WithSource(mapSource{"page.html": "chatty"}))

	var calls atomic.Int32
	done := make(chan struct{}, 4)
	m.Render("page", func(out string, err error) {
		assert.NoError(t, err)
		assert.Equal(t, "chatty", out)
		calls.Add(1)
		done <- struct{}{}
	})

	<-done
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRender_Pongo2WithLayout(t *testing.T) {
	m := newTestManager(t, Config{
		Layout:     true,
		LayoutFile: "pongo/layout.pongo",
		Engines: []EngineConfig{
			{Extension: "html", ModuleName: ModuleNameHTML},
			{Extension: "pongo", ModuleName: ModuleNamePongo2},
		},
	})

	out, err := renderAndWait(t, m, "pongo/hello.pongo", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "<main>Hello Ada!</main>", out)

	_, err = renderAndWait(t, m, "pongo/broken.pongo")
	requireViewError(t, err, KindCompileFailure)
}

func TestRender_SanitizedEngine(t *testing.T) {
	m := newTestManager(t, Config{
		Engines: []EngineConfig{{Extension: "html", ModuleName: ModuleNameHTML, Sanitize: true}},
	})

	out, err := renderAndWait(t, m, "valid/unsafe", map[string]any{"message": "x"})

	require.NoError(t, err)
	assert.Contains(t, out, "<b>x</b>")
	assert.NotContains(t, out, "<script>")
}

func TestRender_Partials(t *testing.T) {
	for _, dir := range []string{testPartialsDir, testPartialsDir + "/"} {
		t.Run(dir, func(t *testing.T) {
			m := newTestManager(t, Config{Partials: PartialsConfig{Path: dir}})
			assert.Equal(t, 2, m.PartialCount())

			out, err := renderAndWait(t, m, "valid/testPartials", map[string]any{"message": "hi"})
			require.NoError(t, err)
			assert.Equal(t, "<header>Header</header><p>hi</p><nav>Menu</nav>\n", out)
		})
	}
}

func TestRender_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := newTestManager(t, Config{}, WithLogger(zap.New(core)))

	_, err := renderAndWait(t, m, "valid/novars")
	require.NoError(t, err)
	_, err = renderAndWait(t, m, "invalid/missing")
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage(LogMsgManagerCreated).Len())
	assert.Equal(t, 1, logs.FilterMessage(LogMsgRenderDone).Len())

	failed := logs.FilterMessage(LogMsgRenderFailed).All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.WarnLevel, failed[0].Level)
	assert.Equal(t, string(KindCompileFailure), failed[0].ContextMap()[LogFieldKind])

	states := logs.FilterMessage(LogMsgStateTransition).FilterField(zap.String(LogFieldState, string(stateDone)))
	assert.Equal(t, 1, states.Len())
}

func TestManager_Settings(t *testing.T) {
	m := newTestManager(t, Config{Layout: true})

	settings := m.Settings()
	assert.Equal(t, testTemplatesDir, settings.Path)
	assert.Equal(t, DefaultLayoutKeyword, settings.LayoutKeyword)
	assert.Equal(t, DefaultLayoutFile, settings.LayoutFile)
	assert.True(t, settings.CacheEnabled())

	settings.Engines[0].Extension = "mutated"
	assert.Equal(t, "html", m.Settings().Engines[0].Extension)
}

func TestManager_ContentType(t *testing.T) {
	m := newTestManager(t, Config{Engines: []EngineConfig{
		{Extension: "html", ModuleName: ModuleNameHTML},
		{Extension: "txt", ModuleName: ModuleNameText, ContentType: "text/plain"},
	}})

	assert.Equal(t, DefaultContentType, m.ContentType("valid/test"))
	assert.Equal(t, "text/plain", m.ContentType("notes.txt"))
	assert.Equal(t, DefaultContentType, m.ContentType("notes.jade"))
}

func TestManager_Precompile(t *testing.T) {
	m := newTestManager(t, Config{})

	require.NoError(t, m.Precompile(context.Background(), "valid/test"))
	assert.Equal(t, 1, m.CachedCount())

	err := m.Precompile(context.Background(), "invalid/badmustache")
	requireViewError(t, err, KindCompileFailure)

	async := newTestManager(t, asyncTextConfig())
	require.NoError(t, async.Precompile(context.Background(), "async/valid"))
	requireViewError(t, async.Precompile(context.Background(), "async/uncompiled"), KindCompileFailure)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Engines: []EngineConfig{{Extension: "html", ModuleName: "jade"}}})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))

	assert.Panics(t, func() {
		MustNew(Config{Engines: []EngineConfig{{Extension: "html", Module: stubEngine{}, AsyncCompile: true}}})
	})
}
