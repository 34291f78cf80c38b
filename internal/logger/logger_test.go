package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "sk-123", "model", "gpt-4", "dangling"})

	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "model", "gpt-4", "dangling"}, out)
}

func TestLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("staged file", "path", "/tmp/x", "openai_token", "abc")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "/tmp/x", fields["path"])
	assert.Equal(t, "[REDACTED]", fields["openai_token"])
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, l.SugaredLogger)
	}
	Nop().Info("discarded")
}
