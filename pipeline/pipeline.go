// Package pipeline turns a list of article seeds into a finished brief:
// each article is fetched and extracted in turn, then the whole batch is
// summarized in one model call.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/briefsmith/article"
	"github.com/pevans/briefsmith/brief"
	"github.com/pevans/briefsmith/browser"
	"github.com/pevans/briefsmith/extract"
	"github.com/pevans/briefsmith/fetcher"
	"github.com/pevans/briefsmith/summarize"
	"github.com/pevans/briefsmith/urlcheck"
	"go.uber.org/zap"
)

// PageFetcher downloads article HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Result, error)
}

// SessionFetcher reads articles through a saved browser session.
type SessionFetcher interface {
	HasSession(rawURL string) bool
	Fetch(ctx context.Context, rawURL string) (*browser.Result, error)
}

// Summarizer writes summaries for a batch of articles.
type Summarizer interface {
	Summarize(ctx context.Context, articles []summarize.Input) ([]summarize.Result, error)
}

// SummarizerFactory builds a summarizer for an API key.
type SummarizerFactory func(apiKey string) Summarizer

// Fallbacks for articles the model skipped.
const (
	FallbackKicker  = "News:"
	FallbackSummary = "Summary not available"
	FallbackEmoji   = "📰"
	untitled        = "Untitled"
)

// Messages recorded against individual articles.
const (
	msgPaywallHint   = "Paywall detected. Log in to this site from the sessions page or mark as paywalled and paste content manually."
	msgNoContent     = "Could not extract article content. Please paste the text manually."
	msgBrowserFailed = "Browser automation failed. Try marking as paywalled and pasting content manually."
)

// InputError rejects a whole request before any article is processed.
type InputError struct {
	ID      string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

var (
	ErrMissingAPIKey = &InputError{ID: "api-key", Message: "API key is required. Set ANTHROPIC_API_KEY or pass an apiKey."}
	ErrNoArticles    = &InputError{ID: "input", Message: "At least one article is required"}
)

// Outcome is the result of a generation run. Success is false when no
// article could be summarized; Errors lists per-article failures either way.
type Outcome struct {
	Success bool                      `json:"success"`
	Brief   *brief.Generated          `json:"brief,omitempty"`
	Errors  []article.ProcessingError `json:"errors,omitempty"`
}

// Generator runs the brief pipeline.
type Generator struct {
	pages       PageFetcher
	sessions    SessionFetcher
	summarizers SummarizerFactory
	apiKey      string
	logger      *zap.Logger
}

// NewGenerator creates a generator. sessions may be nil when browser
// automation is unavailable; apiKey is used when a request carries none.
func NewGenerator(pages PageFetcher, sessions SessionFetcher, summarizers SummarizerFactory, apiKey string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		pages:       pages,
		sessions:    sessions,
		summarizers: summarizers,
		apiKey:      apiKey,
		logger:      logger,
	}
}

// FetchArticle validates, fetches and extracts a single URL. Every failure
// is an *article.FetchError.
func (g *Generator) FetchArticle(ctx context.Context, rawURL string) (*article.ExtractedContent, error) {
	if rawURL == "" {
		return nil, article.NewFetchError(article.ErrInvalidURL, "URL is required")
	}
	if err := urlcheck.Validate(rawURL); err != nil {
		return nil, article.NewFetchError(article.ErrInvalidURL, err.Error())
	}

	page, err := g.pages.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content := extract.Extract(page.HTML, page.FinalURL)
	if content == nil {
		return nil, article.NewFetchError(article.ErrNoContent, msgNoContent)
	}
	return content, nil
}

// Generate processes articles one at a time and summarizes the survivors
// in a single call. One failing article never fails the batch.
func (g *Generator) Generate(ctx context.Context, articles []article.Input, apiKey string) (*Outcome, error) {
	if apiKey == "" {
		apiKey = g.apiKey
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	var failures []article.ProcessingError
	var ready []summarize.Input
	manual := map[string]bool{}

	for _, in := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prepared, err := g.prepare(ctx, in)
		if err != nil {
			g.logger.Info("article failed", zap.String("id", in.ID), zap.String("url", in.URL), zap.Error(err))
			failures = append(failures, article.ProcessingError{ID: in.ID, URL: in.URL, Error: err.Error()})
			continue
		}
		if in.HasManualContent() {
			manual[in.ID] = true
		}
		ready = append(ready, *prepared)
	}

	if len(ready) == 0 {
		return &Outcome{Success: false, Errors: failures}, nil
	}

	results, err := g.summarizers(apiKey).Summarize(ctx, ready)
	if err != nil {
		g.logger.Warn("summarization failed", zap.Int("articles", len(ready)), zap.Error(err))
		failures = append(failures, article.ProcessingError{ID: "summarization", Error: err.Error()})
		return &Outcome{Success: false, Errors: failures}, nil
	}

	byID := make(map[string]summarize.Result, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	summarized := make([]article.Summarized, 0, len(ready))
	for _, in := range ready {
		s := article.Summarized{
			ID:         in.ID,
			URL:        in.URL,
			Kicker:     FallbackKicker,
			Summary:    FallbackSummary,
			Emoji:      FallbackEmoji,
			SourceName: in.SourceName,
			Status:     article.StatusFailed,
		}
		if r, ok := byID[in.ID]; ok {
			s.Status = article.StatusSuccess
			if manual[in.ID] {
				s.Status = article.StatusManual
			}
			if r.Kicker != "" {
				s.Kicker = r.Kicker
			}
			if r.Summary != "" {
				s.Summary = r.Summary
			}
			if r.SuggestedEmoji != "" {
				s.Emoji = r.SuggestedEmoji
			}
		}
		summarized = append(summarized, s)
	}

	generated := brief.Generate(summarized)
	g.logger.Info("brief generated", zap.Int("articles", len(summarized)), zap.Int("errors", len(failures)))
	return &Outcome{Success: true, Brief: &generated, Errors: failures}, nil
}

// prepare turns one seed into summarizer input.
func (g *Generator) prepare(ctx context.Context, in article.Input) (*summarize.Input, error) {
	if in.HasManualContent() {
		headline := in.ManualHeadline
		if headline == "" {
			headline = untitled
		}
		source := in.ManualSourceName
		if source == "" {
			source = urlcheck.GetSourceName(in.URL)
		}
		return &summarize.Input{ID: in.ID, Headline: headline, Content: in.ManualExcerpt, SourceName: source, URL: in.URL}, nil
	}

	if err := urlcheck.Validate(in.URL); err != nil {
		return nil, err
	}

	canUseBrowser := g.sessions != nil && g.sessions.HasSession(in.URL)
	if canUseBrowser && urlcheck.IsPaywalledSource(in.URL) {
		return g.prepareWithBrowser(ctx, in)
	}

	page, err := g.pages.Fetch(ctx, in.URL)
	if err != nil {
		var fetchErr *article.FetchError
		if errors.As(err, &fetchErr) {
			if fetchErr.Type == article.ErrPaywallDetected && !canUseBrowser {
				return nil, errors.New(msgPaywallHint)
			}
			return nil, errors.New(fetchErr.Message)
		}
		return nil, fmt.Errorf("Failed to fetch article: %w", err)
	}

	content := extract.Extract(page.HTML, page.FinalURL)
	if content == nil {
		return nil, errors.New(msgNoContent)
	}

	return &summarize.Input{
		ID:         in.ID,
		Headline:   content.Headline,
		Content:    content.Content,
		SourceName: content.SourceName,
		URL:        in.URL,
	}, nil
}

func (g *Generator) prepareWithBrowser(ctx context.Context, in article.Input) (*summarize.Input, error) {
	g.logger.Info("using browser session", zap.String("url", in.URL))

	result, err := g.sessions.Fetch(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	if result.Content == "" {
		return nil, errors.New(msgBrowserFailed)
	}

	headline := result.Headline
	if headline == "" {
		headline = untitled
	}
	source := result.SourceName
	if source == "" {
		source = urlcheck.GetSourceName(in.URL)
	}
	return &summarize.Input{ID: in.ID, Headline: headline, Content: result.Content, SourceName: source, URL: in.URL}, nil
}
