package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bake.log")
	cfg := DefaultFileConfig(logFile)
	cfg.Compress = false

	require.NoError(t, InitWithFileConfig("warn", cfg, false))
	t.Cleanup(func() { Log = zap.NewNop(); Sugar = Log.Sugar() })

	Info("dropped below level")
	L("atlas").Warn("texture dropped", zap.String("name", "block/stone"))
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "atlas", entry["logger"])
	assert.Equal(t, "texture dropped", entry["msg"])
	assert.Equal(t, "block/stone", entry["name"])
}

func TestNopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("nothing")
		L("x").Error("still nothing")
		Sync()
	})
}
