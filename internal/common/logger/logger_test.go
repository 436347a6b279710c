package logger

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", "***"},
		{"short", "abc", "***"},
		{"exactly eight", "abcdefgh", "***"},
		{"jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1MSJ9.sig", "eyJhbGci..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked := MaskToken(tt.token)
			assert.Equal(t, tt.want, masked)
			if len(tt.token) > 0 {
				assert.NotEqual(t, tt.token, masked)
			}
		})
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "api"})

	log.WithError(stderrors.New("boom")).Warn("Request failed", map[string]interface{}{
		"route":  "/conversations",
		"status": 503,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "api", fields["component"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "/conversations", fields["route"])
	assert.EqualValues(t, 503, fields["status"])
}

func TestNewWithOutput_HonoursLevelAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	log := NewWithOutput("warn", "json", path)

	log.Info("dropped", nil)
	log.Warn("kept", map[string]interface{}{"attempt": 2})
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"attempt":2`)
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.With(map[string]interface{}{"k": "v"}).Error("ignored", nil)
	})
	assert.NoError(t, log.Sync())
}
