//go:build ocr

package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

// Client uses libtesseract through gosseract. Build with -tags ocr.
type Client struct {
	Language    string
	TessdataDir string
}

func NewClient(language, tessdataDir string) (*Client, error) {
	if language == "" {
		language = "eng"
	}
	return &Client{Language: language, TessdataDir: tessdataDir}, nil
}

func pageSegMode(m ocr.Mode) gosseract.PageSegMode {
	switch m {
	case ocr.ModeAuto:
		return gosseract.PSM_AUTO
	case ocr.ModeSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case ocr.ModeSparseText:
		return gosseract.PSM_SPARSE_TEXT
	default:
		return gosseract.PSM_SINGLE_BLOCK
	}
}

// Recognize opens a fresh client per call; gosseract clients are not safe
// for concurrent use and a timed-out attempt may still hold one.
func (c *Client) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if c.TessdataDir != "" {
		client.TessdataPrefix = c.TessdataDir
	}
	if err := client.SetLanguage(c.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(pageSegMode(mode)); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", fmt.Errorf("set variable: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}
