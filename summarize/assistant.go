package summarize

import (
	"context"
	"errors"

	"github.com/pevans/briefsmith/llm"
)

// Defaults applied when the model leaves a field out.
const (
	DefaultEmoji   = "📰"
	DefaultCaption = "News update"

	captionFromHeadline = 30
)

var (
	ErrContentRequired  = errors.New("Article content is required")
	ErrArticlesRequired = errors.New("Articles are required")
)

// Assistant runs the short single-object prompts: one-article summaries,
// SEO suggestions and image metadata.
type Assistant struct {
	model llm.Completer
}

// NewAssistant creates an assistant backed by model.
func NewAssistant(model llm.Completer) *Assistant {
	return &Assistant{model: model}
}

// SingleInput is one article to summarize in caption form.
type SingleInput struct {
	URL        string `json:"url"`
	Headline   string `json:"headline"`
	Content    string `json:"content"`
	SourceName string `json:"sourceName"`
}

// Single is a caption-style summary of one article.
type Single struct {
	Emoji      string `json:"emoji"`
	Caption    string `json:"caption"`
	Summary    string `json:"summary"`
	SourceName string `json:"sourceName"`
}

// SummarizeOne writes an emoji, caption and summary for a single article.
func (a *Assistant) SummarizeOne(ctx context.Context, in SingleInput) (*Single, error) {
	if in.Content == "" {
		return nil, ErrContentRequired
	}

	text, err := a.model.Complete(ctx, llm.Request{Prompt: buildSinglePrompt(in)})
	if err != nil {
		return nil, err
	}

	var parsed Single
	if err := llm.DecodeObject(text, &parsed); err != nil {
		return nil, err
	}

	if parsed.Emoji == "" {
		parsed.Emoji = DefaultEmoji
	}
	if parsed.Caption == "" {
		parsed.Caption = DefaultCaption
		if in.Headline != "" {
			parsed.Caption = truncate(in.Headline, captionFromHeadline)
		}
	}
	parsed.SourceName = in.SourceName
	return &parsed, nil
}

// SEOArticle is the part of a brief article the SEO prompt uses.
type SEOArticle struct {
	Emoji      string `json:"emoji"`
	Caption    string `json:"caption"`
	Summary    string `json:"summary"`
	SourceName string `json:"sourceName"`
}

// SEOSuggestion is one headline and meta description pair.
type SEOSuggestion struct {
	Headline        string `json:"headline"`
	MetaDescription string `json:"metaDescription"`
}

// SEOResult holds alternative headlines plus stock photo search terms.
type SEOResult struct {
	Suggestions      []SEOSuggestion `json:"suggestions"`
	ImageSearchTerms []string        `json:"imageSearchTerms"`
}

// SuggestSEO proposes post headlines, meta descriptions and image search
// terms for a roundup.
func (a *Assistant) SuggestSEO(ctx context.Context, currentTitle string, articles []SEOArticle) (*SEOResult, error) {
	if len(articles) == 0 {
		return nil, ErrArticlesRequired
	}

	text, err := a.model.Complete(ctx, llm.Request{Prompt: buildSEOPrompt(currentTitle, articles)})
	if err != nil {
		return nil, err
	}

	var parsed SEOResult
	if err := llm.DecodeObject(text, &parsed); err != nil {
		return nil, err
	}
	if parsed.Suggestions == nil {
		parsed.Suggestions = []SEOSuggestion{}
	}
	if parsed.ImageSearchTerms == nil {
		parsed.ImageSearchTerms = []string{}
	}
	return &parsed, nil
}

// ImageSEOInput describes a featured image and the post it belongs to.
type ImageSEOInput struct {
	ImageTitle    string   `json:"imageTitle"`
	ArticleTopics []string `json:"articleTopics"`
	PostTitle     string   `json:"postTitle"`
}

// ImageSEO is media library metadata for a featured image.
type ImageSEO struct {
	AltText     string `json:"altText"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// DescribeImage writes alt text, caption and description for an image. The
// alt text falls back to the stock title.
func (a *Assistant) DescribeImage(ctx context.Context, in ImageSEOInput) (*ImageSEO, error) {
	text, err := a.model.Complete(ctx, llm.Request{Prompt: buildImageSEOPrompt(in)})
	if err != nil {
		return nil, err
	}

	var parsed ImageSEO
	if err := llm.DecodeObject(text, &parsed); err != nil {
		return nil, err
	}
	if parsed.AltText == "" {
		parsed.AltText = in.ImageTitle
	}
	return &parsed, nil
}
