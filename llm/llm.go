package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer sends a prompt to a language model and returns the text of its
// reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Error is a model failure the caller can classify. Retryable failures
// (rate limits, malformed replies) are worth a "try again"; the rest need a
// configuration change.
type Error struct {
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common classified errors.
var (
	ErrMissingAPIKey = &Error{Message: "API key is required", Retryable: false}
	ErrNoText        = &Error{Message: "No text content in response", Retryable: true}
)

// ScanArray returns the span from the first '[' to the last ']' in text.
func ScanArray(text string) (string, bool) {
	return scan(text, "[", "]")
}

// ScanObject returns the span from the first '{' to the last '}' in text.
func ScanObject(text string) (string, bool) {
	return scan(text, "{", "}")
}

func scan(text, open, close string) (string, bool) {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// DecodeObject extracts the first JSON object embedded in a free-form reply
// and decodes it into out.
func DecodeObject(text string, out any) error {
	raw, ok := ScanObject(text)
	if !ok {
		return &Error{Message: "Could not parse AI response", Retryable: true}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &Error{Message: "Could not parse AI response", Retryable: true, Err: err}
	}
	return nil
}
