package openai

import (
    "context"
    "net/http"
    "strings"
    "testing"

    "github.com/sashabaranov/go-openai"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

type fakeCompleter struct {
    req  openai.ChatCompletionRequest
    resp openai.ChatCompletionResponse
    err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    f.req = req
    return f.resp, f.err
}

func TestRecognize(t *testing.T) {
    f := &fakeCompleter{resp: openai.ChatCompletionResponse{
        Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "SPAM 987-654-3210"}}},
    }}
    c := NewWithCompleter(f, "")

    png := []byte("\x89PNG\r\n\x1a\n0000")
    text, err := c.Recognize(context.Background(), png, ocr.ModeSingleLine)
    require.NoError(t, err)
    assert.Equal(t, "SPAM 987-654-3210", text)

    assert.Equal(t, openai.GPT4oMini, f.req.Model)
    assert.Equal(t, maxTokens, f.req.MaxTokens)
    parts := f.req.Messages[1].MultiContent
    require.Len(t, parts, 2)
    assert.Contains(t, parts[0].Text, "single line")
    assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestRecognizeReasoningModel(t *testing.T) {
    req := NewWithCompleter(&fakeCompleter{}, "o4-mini").Request(nil, ocr.ModeAuto)
    assert.Equal(t, maxTokens, req.MaxCompletionTokens)
    assert.Zero(t, req.MaxTokens)
}

func TestRecognizeQuota(t *testing.T) {
    f := &fakeCompleter{err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}}
    _, err := NewWithCompleter(f, "gpt-4o").Recognize(context.Background(), nil, ocr.ModeBlock)
    assert.ErrorIs(t, err, ocr.ErrQuotaExceeded)
}
