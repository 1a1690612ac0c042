package ocr

import "errors"

var (
	// ErrTimeout is reported when an attempt loses the race against its deadline.
	ErrTimeout = errors.New("ocr attempt timed out")
	// ErrEngineUnavailable means the backend is not compiled in or not installed.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")
	// ErrQuotaExceeded indicates a hosted provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ocr provider quota exceeded")
)
