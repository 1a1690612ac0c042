package prompt

import (
    "fmt"

    "github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

// GetSystemPrompt keeps the model to verbatim transcription.
func GetSystemPrompt() string {
    return `You transcribe text from phone call and SMS screenshots. Output only the text visible in the image, exactly as written, one visual line per output line.

Rules:
- Do not translate, summarize, correct spelling, or add commentary.
- Keep phone numbers, punctuation and symbols as they appear.
- Keep look-alike characters as they appear; do not replace them with their Latin equivalents.
- If no text is visible, output nothing.`
}

// GetUserPrompt hints at the layout the caller expects for the given mode.
func GetUserPrompt(mode ocr.Mode) string {
    var layout string
    switch mode {
    case ocr.ModeSingleLine:
        layout = "The image most likely holds a single line of text."
    case ocr.ModeSparseText:
        layout = "Text is scattered across the image; include every fragment you can read."
    case ocr.ModeBlock:
        layout = "The text forms a single uniform block."
    default:
        layout = "The layout is unknown."
    }
    return fmt.Sprintf("Transcribe the screenshot. %s", layout)
}
