package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(LogConfig{Level: LevelDebug, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_EmptyOutputPathsRejected(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestZapLogger_FieldsAreTyped(t *testing.T) {
	l, logs := newObservedLogger()

	l.Info("pivot computed",
		String("metric", "loss"),
		Int("rows", 3),
		Float64("smoothing", 0.6),
		Bool("empty", false),
		Duration("took", time.Millisecond),
		Err(errors.New("boom")),
		Strings("hidden", []string{"acc"}),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pivot computed", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "loss", ctx["metric"])
	assert.Equal(t, int64(3), ctx["rows"])
	assert.Equal(t, 0.6, ctx["smoothing"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger()
	child := l.Named("views").With(String("project", "p1"))
	child.Warn("rename rejected")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "views", entry.LoggerName)
	assert.Equal(t, "p1", entry.ContextMap()["project"])
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
}

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)
	child := l.Named("http")

	child.Debug("hidden")
	require.True(t, SetLevel(l, LevelDebug))
	child.Debug("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetLevel_Unsupported(t *testing.T) {
	assert.False(t, SetLevel(NewNopLogger(), LevelDebug))
	observed, _ := newObservedLogger()
	assert.False(t, SetLevel(observed, LevelDebug))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newObservedLogger()
	SetDefault(l)
	assert.Same(t, l, Default())

	SetDefault(nil)
	assert.Same(t, l, Default())
}

func TestNopLogger(t *testing.T) {
	n := NewNopLogger()
	assert.NotPanics(t, func() {
		n.With(String("a", "b")).Named("x").Error("ignored")
	})
}

//Personal.AI order the ending
