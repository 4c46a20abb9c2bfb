package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Info("ChatService", "exchange complete", map[string]interface{}{"chat_id": "c1"})
	l.Error("MemoryIndexer", "indexing failed", map[string]interface{}{"error": errors.New("boom").Error()})
	l.Debug("Session", "nil details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "exchange complete", entries[0].Message)
	assert.Equal(t, "ChatService", entries[0].ContextMap()["module"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error_ref"])

	assert.NotNil(t, entries[2].ContextMap()["details"])
}

func TestIsolatedLogger_WritesFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.log")
	l := NewIsolatedLogger(path)

	l.Info("Session", "connected", map[string]interface{}{"user_id": "u1"})
	l.Debug("Session", "below file level", nil)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"message":"connected"`)
	assert.False(t, strings.Contains(content, "below file level"))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("Any", "ignored", nil)
	assert.NoError(t, l.Sync())
}
