package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	ocrapp "github.com/bryanwahyu/spamshot/internal/application/ocr"
	"github.com/bryanwahyu/spamshot/internal/bootstrap"
	"github.com/bryanwahyu/spamshot/internal/config"
	"github.com/bryanwahyu/spamshot/internal/infra/imageproc"
	"github.com/bryanwahyu/spamshot/internal/logger"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image-file]",
		Short: "OCR a screenshot and report whether it is marked as spam",
		Long: `Compress the screenshot, run the OCR fallback chain over the original and
compressed images, then classify the text and pull out the caller's number.

The OCR backend comes from the config file (ocr.engine) unless --engine is set.`,
		Example: `  spamshot analyze call-log.png
  spamshot analyze shot.jpg --engine vision --timeout 10s`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().String("config", "config.yaml", "Config file path")
	cmd.Flags().String("engine", "", "OCR engine (tesseract-cli, tesseract, vision, openai)")
	cmd.Flags().Duration("timeout", 0, "Per-attempt OCR timeout (default from config)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	path, _ := cmd.Flags().GetString("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if engine, _ := cmd.Flags().GetString("engine"); engine != "" {
		cfg.OCR.Engine = engine
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.OCR.Timeout = timeout
	}

	img, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	recognizer, closer, err := bootstrap.Recognizer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	strategies, err := bootstrap.Strategies(cfg.OCR.Strategies)
	if err != nil {
		return err
	}

	opts := imageproc.DefaultOptions()
	opts.TargetBytes = cfg.Compression.TargetBytes
	compressed, err := imageproc.Compress(img, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	start := time.Now()
	res := ocrapp.NewEngine(recognizer, strategies, cfg.OCR.Timeout, logger.WithComponent("ocr")).
		Extract(ctx, img, compressed)
	log.Debug().Dur("elapsed", time.Since(start)).Int("attempts", len(res.Attempts)).Msg("ocr finished")

	v := verdictFor(res.Text)
	v.File = filepath.Base(args[0])
	v.OriginalBytes = len(img)
	v.CompressedBytes = len(compressed)
	for _, a := range res.Attempts {
		line := fmt.Sprintf("%s/%s %dms len=%d", a.Source, a.Mode, a.ElapsedMS(), a.Length)
		if a.Err != "" {
			line += " err=" + a.Err
		}
		v.Attempts = append(v.Attempts, line)
	}
	return printJSON(cmd, v)
}
