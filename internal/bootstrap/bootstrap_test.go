package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/spamshot/internal/config"
	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
	"github.com/bryanwahyu/spamshot/internal/infra/ai/openai"
	"github.com/bryanwahyu/spamshot/internal/infra/db/sqlstore"
)

func TestDatabaseSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "shots.db")

	db, dialect, err := Database(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, sqlstore.SQLite, dialect)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM analyzed_screenshots`).Scan(&n))
	assert.Zero(t, n)
}

func TestDatabaseUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	_, _, err := Database(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRecognizerSelection(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Engine = config.EngineOpenAI
	_, _, err := Recognizer(context.Background(), cfg)
	assert.ErrorIs(t, err, ocr.ErrEngineUnavailable)

	cfg.OpenAI.APIKey = "sk-test"
	r, closer, err := Recognizer(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, r)
	assert.NoError(t, closer.Close())

	cfg.OCR.Engine = "magic"
	_, _, err = Recognizer(context.Background(), cfg)
	assert.ErrorIs(t, err, ocr.ErrEngineUnavailable)

	cfg.OCR.Engine = config.EngineTesseractCLI
	cfg.OCR.Binary = filepath.Join(t.TempDir(), "no-such-tesseract")
	_, _, err = Recognizer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestStrategies(t *testing.T) {
	modes, err := Strategies([]string{"block", "single_line", "auto"})
	require.NoError(t, err)
	assert.Equal(t, []ocr.Mode{ocr.ModeBlock, ocr.ModeSingleLine, ocr.ModeAuto}, modes)

	_, err = Strategies([]string{"block", "sideways"})
	assert.Error(t, err)
}
