// Package bootstrap turns a loaded config into wired infrastructure.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/bryanwahyu/spamshot/internal/config"
	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
	"github.com/bryanwahyu/spamshot/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/spamshot/internal/infra/db/mysql"
	"github.com/bryanwahyu/spamshot/internal/infra/db/postgres"
	"github.com/bryanwahyu/spamshot/internal/infra/db/sqlite"
	"github.com/bryanwahyu/spamshot/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/spamshot/internal/infra/ocr/tesseract"
	"github.com/bryanwahyu/spamshot/internal/infra/ocr/vision"
)

// Database connects to the configured driver and brings the schema up to date.
func Database(ctx context.Context, cfg *config.Config) (*sql.DB, sqlstore.Dialect, error) {
	var (
		db      *sql.DB
		dialect sqlstore.Dialect
		migrate func(context.Context, *sql.DB) error
		err     error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		dialect, migrate = sqlstore.MySQL, mysqlp.Migrate
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		dialect, migrate = sqlstore.Postgres, postgres.Migrate
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.Database.Path)
		dialect, migrate = sqlstore.SQLite, sqlite.Migrate
	default:
		return nil, 0, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, 0, fmt.Errorf("%s migrate: %w", cfg.Database.Driver, err)
	}
	return db, dialect, nil
}

// Recognizer builds the OCR backend named by cfg.OCR.Engine. The closer
// releases backend resources and is never nil.
func Recognizer(ctx context.Context, cfg *config.Config) (ocr.Recognizer, io.Closer, error) {
	switch cfg.OCR.Engine {
	case config.EngineTesseractCLI, "":
		cli := tesseract.NewCLI(cfg.OCR.Binary, cfg.OCR.Language, cfg.OCR.TessdataDir)
		if err := cli.Available(); err != nil {
			return nil, nil, err
		}
		return cli, nopCloser{}, nil
	case config.EngineTesseract:
		c, err := tesseract.NewClient(cfg.OCR.Language, cfg.OCR.TessdataDir)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser{}, nil
	case config.EngineVision:
		c, err := vision.New(ctx, cfg.Vision.CredentialsFile, cfg.Vision.LanguageHints)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.EngineOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, nil, fmt.Errorf("%w: openai.apiKey is empty", ocr.ErrEngineUnavailable)
		}
		return openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown engine %q", ocr.ErrEngineUnavailable, cfg.OCR.Engine)
}

// Strategies parses the configured attempt modes in order.
func Strategies(names []string) ([]ocr.Mode, error) {
	out := make([]ocr.Mode, 0, len(names))
	for _, n := range names {
		m, err := ocr.ParseMode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
