package openai

import (
    "context"
    "encoding/base64"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/sashabaranov/go-openai"

    "github.com/bryanwahyu/spamshot/internal/domain/ocr"
    "github.com/bryanwahyu/spamshot/internal/infra/ai/prompt"
)

const maxTokens = 1024

// ChatCompleter is the slice of the go-openai client this package needs.
type ChatCompleter interface {
    CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client transcribes screenshots with a vision-capable chat model.
type Client struct {
    api   ChatCompleter
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{api: openai.NewClient(apiKey), Model: model}
}

func NewWithCompleter(api ChatCompleter, model string) *Client {
    return &Client{api: api, Model: model}
}

func (c *Client) Request(image []byte, mode ocr.Mode) openai.ChatCompletionRequest {
    model := c.Model
    if model == "" {
        model = openai.GPT4oMini
    }
    dataURL := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
    req := openai.ChatCompletionRequest{
        Model: model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
            {Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
                {Type: openai.ChatMessagePartTypeText, Text: prompt.GetUserPrompt(mode)},
                {Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
                    URL:    dataURL,
                    Detail: openai.ImageURLDetailHigh,
                }},
            }},
        },
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }
    return req
}

func (c *Client) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
    resp, err := c.api.CreateChatCompletion(ctx, c.Request(image, mode))
    if err != nil {
        var apiErr *openai.APIError
        if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
            return "", fmt.Errorf("%w: %v", ocr.ErrQuotaExceeded, err)
        }
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return "", nil
    }
    return resp.Choices[0].Message.Content, nil
}
