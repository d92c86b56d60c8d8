package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	DefaultGeminiModel = "gemini-2.0-flash"
)

// Gemini completes prompts through the OpenAI-compatible chat endpoint.
type Gemini struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewGemini creates a Gemini completer. Empty model and baseURL select the
// defaults.
func NewGemini(apiKey, model, baseURL string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Gemini{
		client: openai.NewClientWithConfig(cfg),
		apiKey: apiKey,
		model:  model,
	}
}

// Complete implements Completer.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", &Error{Message: "GEMINI_API_KEY is not configured", Retryable: false}
	}

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", classifyGemini(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoText
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyGemini(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return &Error{Message: "Rate limited. Please wait a moment and try again.", Retryable: true, Err: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Message: "Invalid API key. Please check your Gemini API key.", Retryable: false, Err: err}
		}
	}
	return &Error{Message: err.Error(), Retryable: true, Err: err}
}
