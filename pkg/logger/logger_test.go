package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "json", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New("debug", "json", path)
	require.NoError(t, err)

	l.Info("question created", zap.String("question_id", "q-1"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"question created"`)
	assert.Contains(t, string(data), `"question_id":"q-1"`)
}

func TestDefaultLoggerIsUsableBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("before init")
		Sync()
	})
}
