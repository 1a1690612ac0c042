package ocr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

type call struct {
	image string
	mode  domain.Mode
}

type step struct {
	text  string
	err   error
	delay time.Duration
}

// scriptedRecognizer answers calls in order from steps.
type scriptedRecognizer struct {
	mu    sync.Mutex
	steps []step
	calls []call
}

func (s *scriptedRecognizer) Recognize(ctx context.Context, img []byte, mode domain.Mode) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{string(img), mode})
	var st step
	if len(s.steps) > 0 {
		st, s.steps = s.steps[0], s.steps[1:]
	}
	s.mu.Unlock()
	if st.delay > 0 {
		time.Sleep(st.delay)
	}
	return st.text, st.err
}

func (s *scriptedRecognizer) seen() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func identity(b []byte) ([]byte, error) { return b, nil }

func newTestEngine(r domain.Recognizer, timeout time.Duration) *Engine {
	e := NewEngine(r, nil, timeout, zerolog.Nop())
	e.Preprocess = identity
	return e
}

func TestExtractStopsAtFirstText(t *testing.T) {
	r := &scriptedRecognizer{steps: []step{{text: "  hello  "}}}
	res := newTestEngine(r, time.Second).Extract(context.Background(), []byte("orig"), []byte("small"))

	assert.Equal(t, "hello", res.Text)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, []call{{"orig", domain.ModeBlock}}, r.seen())
}

func TestExtractFallbackOrder(t *testing.T) {
	r := &scriptedRecognizer{steps: []step{
		{text: ""},
		{err: errors.New("engine crashed")},
		{text: "   "},
		{text: "found it"},
	}}
	res := newTestEngine(r, time.Second).Extract(context.Background(), []byte("orig"), []byte("small"))

	assert.Equal(t, "found it", res.Text)
	assert.Equal(t, []call{
		{"orig", domain.ModeBlock},
		{"small", domain.ModeBlock},
		{"orig", domain.ModeSingleLine},
		{"orig", domain.ModeAuto},
	}, r.seen())
	require.Len(t, res.Attempts, 4)
	assert.Equal(t, SourceCompressed, res.Attempts[1].Source)
	assert.Equal(t, "engine crashed", res.Attempts[1].Err)
	assert.Equal(t, []string{"compressed/block: engine crashed"}, res.Errors())
}

func TestExtractAllEmptyIsNotFatal(t *testing.T) {
	r := &scriptedRecognizer{}
	res := newTestEngine(r, time.Second).Extract(context.Background(), []byte("orig"), nil)

	assert.Empty(t, res.Text)
	// no compressed buffer: block, single_line, auto on the original
	assert.Len(t, r.seen(), 3)
	assert.Len(t, res.Attempts, 3)
}

func TestExtractTimeoutFallsThrough(t *testing.T) {
	r := &scriptedRecognizer{steps: []step{
		{text: "too late", delay: 300 * time.Millisecond},
		{text: "quick"},
	}}
	start := time.Now()
	res := newTestEngine(r, 30*time.Millisecond).Extract(context.Background(), []byte("orig"), []byte("small"))

	assert.Equal(t, "quick", res.Text)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, domain.ErrTimeout.Error(), res.Attempts[0].Err)
}

func TestExtractPreprocessFailureCountsAsEmpty(t *testing.T) {
	r := &scriptedRecognizer{steps: []step{{text: "from compressed"}}}
	e := newTestEngine(r, time.Second)
	e.Preprocess = func(b []byte) ([]byte, error) {
		if string(b) == "orig" {
			return nil, errors.New("bad image")
		}
		return b, nil
	}
	res := e.Extract(context.Background(), []byte("orig"), []byte("small"))

	assert.Equal(t, "from compressed", res.Text)
	assert.Equal(t, []call{{"small", domain.ModeBlock}}, r.seen())
}

func TestPlanIsLazy(t *testing.T) {
	e := newTestEngine(&scriptedRecognizer{}, time.Second)
	e.Strategies = []domain.Mode{domain.ModeBlock, domain.ModeSparseText}

	var got []Attempt
	for a := range e.Plan([]byte("o"), []byte("c")) {
		got = append(got, a)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)

	var all []domain.Mode
	for a := range e.Plan([]byte("o"), []byte("c")) {
		all = append(all, a.Mode)
	}
	assert.Equal(t, []domain.Mode{domain.ModeBlock, domain.ModeBlock, domain.ModeSparseText}, all)
}

func TestAttemptMapsDeadlineExceeded(t *testing.T) {
	r := recognizerFunc(func(ctx context.Context, _ []byte, _ domain.Mode) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e := newTestEngine(r, time.Second)
	_, err := e.Attempt(context.Background(), nil, domain.ModeBlock, 10*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

type recognizerFunc func(ctx context.Context, img []byte, mode domain.Mode) (string, error)

func (f recognizerFunc) Recognize(ctx context.Context, img []byte, mode domain.Mode) (string, error) {
	return f(ctx, img, mode)
}
