package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	path := filepath.Join(t.TempDir(), "app.log")

	cfg := DefaultConfig()
	cfg.Output = path
	cfg.Level = "warn"
	_, closer, err := Setup(cfg)
	require.NoError(t, err)

	l := WithComponent("ocr")
	l.Info().Msg("hidden")
	l = WithComponent("ocr")
	l.Warn().Str("strategy", "block").Msg("attempt timed out")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry), "exactly one line is expected")
	assert.Equal(t, "ocr", entry["component"])
	assert.Equal(t, "block", entry["strategy"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, _, err := Setup(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
