package article

import (
	"fmt"
	"unicode/utf8"
)

// Input is a user-supplied seed for the brief pipeline. It is created from
// pasted URLs or parser output and consumed once.
type Input struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	IsPaywalled      bool   `json:"isPaywalled"`
	ManualExcerpt    string `json:"manualExcerpt,omitempty"`
	ManualHeadline   string `json:"manualHeadline,omitempty"`
	ManualSourceName string `json:"manualSourceName,omitempty"`
}

// HasManualContent reports whether the editor pasted the article text for a
// paywalled article, in which case no fetch is attempted.
func (in Input) HasManualContent() bool {
	return in.IsPaywalled && in.ManualExcerpt != ""
}

// MinContentLength is the shortest body an extraction may return.
const MinContentLength = 100

// ExtractedContent is the structured result of content extraction.
type ExtractedContent struct {
	Headline    string `json:"headline"`
	Content     string `json:"content"`
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	SourceName  string `json:"sourceName"`
	SourceURL   string `json:"sourceUrl"`
}

// Usable reports whether the extraction cleared the headline and length
// bar, counting characters rather than bytes. Callers fall back to manual input when it does not.
func (e *ExtractedContent) Usable() bool {
	return e != nil && e.Headline != "" && utf8.RuneCountInString(e.Content) >= MinContentLength
}

// ErrorType identifies the reason a fetch or extraction failed.
type ErrorType string

const (
	ErrPaywallDetected ErrorType = "PAYWALL_DETECTED"
	ErrTimeout         ErrorType = "TIMEOUT"
	ErrNotFound        ErrorType = "NOT_FOUND"
	ErrNetwork         ErrorType = "NETWORK_ERROR"
	ErrBlocked         ErrorType = "BLOCKED"
	ErrInvalidURL      ErrorType = "INVALID_URL"
	ErrNoContent       ErrorType = "NO_CONTENT"
)

// FetchError is the single failure value returned by fetch and extract
// operations.
type FetchError struct {
	Type                ErrorType `json:"type"`
	Message             string    `json:"message"`
	RequiresManualInput bool      `json:"requiresManualInput"`
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewFetchError builds a FetchError. All failures degrade to manual paste,
// so RequiresManualInput is always set.
func NewFetchError(t ErrorType, message string) *FetchError {
	return &FetchError{
		Type:                t,
		Message:             message,
		RequiresManualInput: true,
	}
}

// Status records how a summarized article was produced.
type Status string

const (
	StatusSuccess Status = "success"
	StatusManual  Status = "manual"
	StatusFailed  Status = "failed"
)

// Summarized is one article as it appears in a brief. Kicker, Summary and
// Emoji may be hand-edited after summarization.
type Summarized struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Kicker     string `json:"kicker"`
	Summary    string `json:"summary"`
	Emoji      string `json:"emoji"`
	SourceName string `json:"sourceName"`
	Status     Status `json:"status"`
}

// ProcessingError is a per-article failure collected during a batch.
type ProcessingError struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}
