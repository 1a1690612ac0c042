package ocr

import (
	"context"
	"fmt"
)

// Mode is a page-segmentation strategy. Values follow tesseract's PSM numbers.
type Mode int

const (
	ModeAuto       Mode = 3
	ModeBlock      Mode = 6
	ModeSingleLine Mode = 7
	ModeSparseText Mode = 11
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeBlock:
		return "block"
	case ModeSingleLine:
		return "single_line"
	case ModeSparseText:
		return "sparse_text"
	}
	return fmt.Sprintf("psm_%d", int(m))
}

// ParseMode accepts the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeAuto, ModeBlock, ModeSingleLine, ModeSparseText} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown segmentation mode %q", s)
}

// Recognizer turns a preprocessed image into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mode Mode) (string, error)
}
