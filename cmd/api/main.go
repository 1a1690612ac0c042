package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bryanwahyu/spamshot/internal/application"
	ocrapp "github.com/bryanwahyu/spamshot/internal/application/ocr"
	appscreens "github.com/bryanwahyu/spamshot/internal/application/screenshots"
	"github.com/bryanwahyu/spamshot/internal/bootstrap"
	"github.com/bryanwahyu/spamshot/internal/config"
	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
	"github.com/bryanwahyu/spamshot/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/spamshot/internal/infra/httpserver"
	"github.com/bryanwahyu/spamshot/internal/infra/imageproc"
	"github.com/bryanwahyu/spamshot/internal/infra/realtime"
	minioStore "github.com/bryanwahyu/spamshot/internal/infra/storage"
	"github.com/bryanwahyu/spamshot/internal/logger"
	"github.com/bryanwahyu/spamshot/internal/middleware"
)

func main() {
	// .env optional, dipakai untuk secret lokal
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("config load error")
	}

	lc := logger.DefaultConfig()
	lc.Level, lc.Format, lc.Output = cfg.Log.Level, cfg.Log.Format, cfg.Log.Output
	base, logFile, err := logger.Setup(lc)
	if err != nil {
		log.Fatal().Err(err).Msg("logger setup error")
	}
	defer logFile.Close()

	if err := run(cfg); err != nil {
		base.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	lg := logger.WithComponent("main")

	db, dialect, err := bootstrap.Database(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
		cfg.Minio.PublicURL,
	)
	if err != nil {
		return fmt.Errorf("minio init: %w", err)
	}

	recognizer, closer, err := bootstrap.Recognizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ocr engine %s: %w", cfg.OCR.Engine, err)
	}
	defer closer.Close()
	strategies, err := bootstrap.Strategies(cfg.OCR.Strategies)
	if err != nil {
		return err
	}
	engine := ocrapp.NewEngine(recognizer, strategies, cfg.OCR.Timeout, logger.WithComponent("ocr"))

	var events domain.Broadcaster = realtime.Nop{}
	var ws http.Handler
	if cfg.Realtime.Enabled {
		hub := realtime.NewHub(cfg.Realtime.BufferSize)
		middleware.RegisterGauge("realtime", func() any { return hub.Stats() })
		events = hub
		ws = realtime.NewHandler(hub, cfg.Realtime.AllowedOrigins, middleware.IsAdminRequest)
	}

	svc := &appscreens.Service{
		Repo:   sqlstore.NewScreenshotRepository(db, dialect),
		Blobs:  store,
		OCR:    engine,
		Events: events,
		Clock:  application.SystemClock{},
		Compression: imageproc.Options{
			TargetBytes:  cfg.Compression.TargetBytes,
			StartWidth:   cfg.Compression.StartWidth,
			MinWidth:     cfg.Compression.MinWidth,
			WidthStep:    cfg.Compression.WidthStep,
			StartQuality: cfg.Compression.StartQuality,
			MinQuality:   cfg.Compression.MinQuality,
			QualityStep:  cfg.Compression.QualityStep,
		},
		Log: logger.WithComponent("screenshots"),
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Screenshots: svc,
		Verifier:    middleware.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret)},
		AdminKeys:   cfg.Auth.AdminKeys,
		Realtime:    ws,
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
			"storage":  store,
		},
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateCapacity:   cfg.Server.RateLimit.Capacity,
		RateRefill:     cfg.Server.RateLimit.RefillRate,
		DebugEnv: map[string]any{
			"engine":     cfg.OCR.Engine,
			"timeoutMs":  cfg.OCR.Timeout.Milliseconds(),
			"strategies": cfg.OCR.Strategies,
		},
		Log: logger.WithComponent("http"),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().
			Str("addr", addr).
			Str("db", cfg.Database.Driver).
			Str("ocr", cfg.OCR.Engine).
			Bool("realtime", cfg.Realtime.Enabled).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}
	lg.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx2)
}
