// Package summarize turns extracted articles into house-style summaries and
// generates the SEO and title copy that goes around a published brief.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pevans/briefsmith/llm"
)

const (
	batchMaxTokens = 2048
	titleMaxTokens = 100

	// MinContentLength is the shortest body worth sending to the model.
	MinContentLength = 50

	// TitlePrefix starts every suggested post title.
	TitlePrefix = "What we're reading: "
)

var (
	ErrNoJSON      = &llm.Error{Message: "Could not parse JSON from response", Retryable: true}
	ErrInvalidJSON = &llm.Error{Message: "Invalid JSON in response", Retryable: true}

	ErrNoArticles = errors.New("No articles provided")
)

// Input is an article ready for summarization.
type Input struct {
	ID         string `json:"id"`
	Headline   string `json:"headline"`
	Content    string `json:"content"`
	SourceName string `json:"sourceName"`
	URL        string `json:"url,omitempty"`
}

// Valid reports whether the article has every field the prompt needs and a
// body longer than MinContentLength.
func (in Input) Valid() bool {
	return in.ID != "" && in.Headline != "" && in.SourceName != "" &&
		len([]rune(in.Content)) > MinContentLength
}

// Result is the model's summary of one article.
type Result struct {
	ID             string `json:"id"`
	Kicker         string `json:"kicker"`
	Summary        string `json:"summary"`
	SuggestedEmoji string `json:"suggestedEmoji"`
}

// Summarizer writes kickers and summaries for a batch of articles in a
// single model call.
type Summarizer struct {
	model llm.Completer
}

// NewSummarizer creates a summarizer that sends prompts to model.
func NewSummarizer(model llm.Completer) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize returns one Result per article the model answered for. Entries
// missing an id, summary or emoji are dropped; a missing kicker becomes "".
func (s *Summarizer) Summarize(ctx context.Context, articles []Input) ([]Result, error) {
	if len(articles) == 0 {
		return []Result{}, nil
	}

	text, err := s.model.Complete(ctx, llm.Request{
		System:    SystemPrompt,
		Prompt:    BuildPrompt(articles),
		MaxTokens: batchMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return parseResults(text)
}

// resultFields uses pointers so absent and mistyped keys can be told apart
// from empty strings.
type resultFields struct {
	ID             *string `json:"id"`
	Kicker         *string `json:"kicker"`
	Summary        *string `json:"summary"`
	SuggestedEmoji *string `json:"suggestedEmoji"`
}

func parseResults(text string) ([]Result, error) {
	raw, ok := llm.ScanArray(text)
	if !ok {
		return nil, ErrNoJSON
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, ErrInvalidJSON
	}

	results := []Result{}
	for _, entry := range entries {
		var f resultFields
		if err := json.Unmarshal(entry, &f); err != nil {
			continue
		}
		if f.ID == nil || f.Summary == nil || f.SuggestedEmoji == nil {
			continue
		}

		r := Result{ID: *f.ID, Summary: *f.Summary, SuggestedEmoji: *f.SuggestedEmoji}
		if f.Kicker != nil {
			r.Kicker = *f.Kicker
		}
		results = append(results, r)
	}
	return results, nil
}

// TitleArticle is the part of a summarized article the title prompt uses.
type TitleArticle struct {
	Kicker     string `json:"kicker"`
	Summary    string `json:"summary"`
	SourceName string `json:"sourceName"`
}

// SuggestTitle asks the model for a short trending topic and returns it as
// a full post title.
func (s *Summarizer) SuggestTitle(ctx context.Context, articles []TitleArticle) (string, error) {
	if len(articles) == 0 {
		return "", ErrNoArticles
	}

	text, err := s.model.Complete(ctx, llm.Request{
		Prompt:    buildTitlePrompt(articles),
		MaxTokens: titleMaxTokens,
	})
	if err != nil {
		return "", err
	}

	return TitlePrefix + strings.TrimSpace(text), nil
}
