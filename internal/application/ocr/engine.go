package ocr

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/spamshot/internal/domain/ocr"
	"github.com/bryanwahyu/spamshot/internal/infra/imageproc"
)

// DefaultTimeout bounds a single recognition attempt.
const DefaultTimeout = 30 * time.Second

// Source says which buffer an attempt reads.
type Source string

const (
	SourceOriginal   Source = "original"
	SourceCompressed Source = "compressed"
)

// Attempt is one (buffer, strategy) pair of the fallback chain.
type Attempt struct {
	Source Source
	Mode   domain.Mode
	Image  []byte
}

// Report describes how an attempt went.
type Report struct {
	Source  Source        `json:"source"`
	Mode    string        `json:"strategy"`
	Elapsed time.Duration `json:"-"`
	Length  int           `json:"length"`
	Err     string        `json:"error,omitempty"`
}

func (r Report) ElapsedMS() int64 { return r.Elapsed.Milliseconds() }

// Result is the text of the first successful attempt plus every report.
type Result struct {
	Text     string
	Attempts []Report
}

// Errors returns the error messages of failed attempts.
func (r Result) Errors() []string {
	var out []string
	for _, a := range r.Attempts {
		if a.Err != "" {
			out = append(out, string(a.Source)+"/"+a.Mode+": "+a.Err)
		}
	}
	return out
}

// Engine runs recognition with ordered fallback. Strategies[0] is tried on
// the original and then the compressed buffer; every further strategy is
// tried on the original only.
type Engine struct {
	Recognizer domain.Recognizer
	Strategies []domain.Mode
	Timeout    time.Duration
	// Preprocess runs before every attempt. Defaults to imageproc.PrepareForOCR.
	Preprocess func([]byte) ([]byte, error)
	Log        zerolog.Logger
}

func NewEngine(r domain.Recognizer, strategies []domain.Mode, timeout time.Duration, log zerolog.Logger) *Engine {
	return &Engine{Recognizer: r, Strategies: strategies, Timeout: timeout, Log: log}
}

func (e *Engine) strategies() []domain.Mode {
	if len(e.Strategies) == 0 {
		return []domain.Mode{domain.ModeBlock, domain.ModeSingleLine, domain.ModeAuto}
	}
	return e.Strategies
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

// Plan yields the attempts lazily so nothing past the winning one is built.
func (e *Engine) Plan(original, compressed []byte) iter.Seq[Attempt] {
	return func(yield func(Attempt) bool) {
		modes := e.strategies()
		if !yield(Attempt{Source: SourceOriginal, Mode: modes[0], Image: original}) {
			return
		}
		if len(compressed) > 0 {
			if !yield(Attempt{Source: SourceCompressed, Mode: modes[0], Image: compressed}) {
				return
			}
		}
		for _, m := range modes[1:] {
			if !yield(Attempt{Source: SourceOriginal, Mode: m, Image: original}) {
				return
			}
		}
	}
}

// Extract walks the plan and stops at the first non-empty text. Failures
// are logged and recorded, never returned.
func (e *Engine) Extract(ctx context.Context, original, compressed []byte) Result {
	var res Result
	for a := range e.Plan(original, compressed) {
		start := time.Now()
		text, err := e.run(ctx, a)
		rep := Report{Source: a.Source, Mode: a.Mode.String(), Elapsed: time.Since(start), Length: len(text)}
		if err != nil {
			rep.Err = err.Error()
		}
		res.Attempts = append(res.Attempts, rep)

		ev := e.Log.Info()
		if err != nil {
			ev = e.Log.Warn().Err(err)
		}
		ev.Str("source", string(a.Source)).
			Str("strategy", rep.Mode).
			Int64("elapsed_ms", rep.ElapsedMS()).
			Int("length", rep.Length).
			Msg("ocr attempt")

		if err == nil && text != "" {
			res.Text = text
			return res
		}
	}
	e.Log.Warn().Int("attempts", len(res.Attempts)).Msg("ocr produced no text")
	return res
}

func (e *Engine) run(ctx context.Context, a Attempt) (string, error) {
	prep := e.Preprocess
	if prep == nil {
		prep = imageproc.PrepareForOCR
	}
	img, err := prep(a.Image)
	if err != nil {
		return "", err
	}
	return e.Attempt(ctx, img, a.Mode, e.timeout())
}

// Attempt races one recognition against timeout. On timeout the recognizer
// goroutine is left to finish on its own and its result is dropped.
func (e *Engine) Attempt(ctx context.Context, img []byte, mode domain.Mode, timeout time.Duration) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	// buffered so a late recognizer never blocks
	done := make(chan outcome, 1)

	actx, cancel := context.WithTimeout(ctx, timeout)
	go func() {
		defer cancel()
		text, err := e.Recognizer.Recognize(actx, img, mode)
		done <- outcome{strings.TrimSpace(text), err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) {
			return "", domain.ErrTimeout
		}
		return o.text, o.err
	case <-timer.C:
		return "", domain.ErrTimeout
	}
}
