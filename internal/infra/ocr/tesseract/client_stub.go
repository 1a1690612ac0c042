//go:build !ocr

package tesseract

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

// Client is only functional when built with -tags ocr. Use CLI otherwise.
type Client struct{}

func NewClient(language, tessdataDir string) (*Client, error) {
	return nil, fmt.Errorf("%w: binary built without the ocr tag", ocr.ErrEngineUnavailable)
}

func (c *Client) Recognize(context.Context, []byte, ocr.Mode) (string, error) {
	return "", ocr.ErrEngineUnavailable
}
