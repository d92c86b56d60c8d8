package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/pevans/briefsmith/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSummarizeOne verifies the object is decoded and the source is echoed
func TestSummarizeOne(t *testing.T) {
	model := &fakeCompleter{reply: "```json\n{\"emoji\": \"💧\", \"caption\": \"PFAS levels spike\", \"summary\": \"Tests found more.\"}\n```"}

	got, err := NewAssistant(model).SummarizeOne(context.Background(), SingleInput{
		URL: "https://example.com/pfas", Headline: "PFAS found", Content: "Body text", SourceName: "MLive",
	})

	require.NoError(t, err)
	assert.Equal(t, &Single{Emoji: "💧", Caption: "PFAS levels spike", Summary: "Tests found more.", SourceName: "MLive"}, got)
	assert.Contains(t, model.last.Prompt, "Headline: PFAS found\nSource: MLive\nURL: https://example.com/pfas")
}

// TestSummarizeOne_Defaults verifies missing fields get defaults
func TestSummarizeOne_Defaults(t *testing.T) {
	model := &fakeCompleter{reply: `{}`}
	assistant := NewAssistant(model)

	got, err := assistant.SummarizeOne(context.Background(), SingleInput{
		Headline: "A headline that is definitely longer than thirty characters", Content: "Body",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultEmoji, got.Emoji)
	assert.Equal(t, "A headline that is definitely ", got.Caption)
	assert.Equal(t, "", got.Summary)

	got, err = assistant.SummarizeOne(context.Background(), SingleInput{Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCaption, got.Caption)
	assert.Contains(t, model.last.Prompt, "Headline: (Extract from the article content below)")
}

// TestSummarizeOne_Errors verifies validation and parse failures
func TestSummarizeOne_Errors(t *testing.T) {
	model := &fakeCompleter{reply: "no json here"}
	assistant := NewAssistant(model)

	_, err := assistant.SummarizeOne(context.Background(), SingleInput{})
	assert.ErrorIs(t, err, ErrContentRequired)
	assert.Zero(t, model.calls)

	_, err = assistant.SummarizeOne(context.Background(), SingleInput{Content: "x"})
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "Could not parse AI response", llmErr.Message)
}

// TestSummarizeOne_TruncatesContent verifies bodies are cut to 4000 runes
func TestSummarizeOne_TruncatesContent(t *testing.T) {
	model := &fakeCompleter{reply: `{}`}

	_, err := NewAssistant(model).SummarizeOne(context.Background(), SingleInput{Content: strings.Repeat("a", 5000)})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(model.last.Prompt, "Content:\n"+strings.Repeat("a", 4000)))
}

// TestSuggestSEO verifies suggestions and terms are decoded
func TestSuggestSEO(t *testing.T) {
	model := &fakeCompleter{reply: `{"suggestions":[{"headline":"Michigan water news","metaDescription":"A roundup."}],"imageSearchTerms":["great lakes water"]}`}

	got, err := NewAssistant(model).SuggestSEO(context.Background(), "What we're reading", []SEOArticle{
		{Emoji: "🌊", Caption: "Water woes", Summary: "Pipes burst.", SourceName: "WDIV"},
	})

	require.NoError(t, err)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, "Michigan water news", got.Suggestions[0].Headline)
	assert.Equal(t, []string{"great lakes water"}, got.ImageSearchTerms)
	assert.Contains(t, model.last.Prompt, "1. 🌊 Water woes: Pipes burst. (Source: WDIV)")
}

// TestSuggestSEO_EmptyLists verifies missing lists decode as empty
func TestSuggestSEO_EmptyLists(t *testing.T) {
	got, err := NewAssistant(&fakeCompleter{reply: `{}`}).SuggestSEO(context.Background(), "", []SEOArticle{{}})

	require.NoError(t, err)
	assert.NotNil(t, got.Suggestions)
	assert.NotNil(t, got.ImageSearchTerms)

	_, err = NewAssistant(&fakeCompleter{}).SuggestSEO(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrArticlesRequired)
}

// TestDescribeImage verifies alt text falls back to the stock title
func TestDescribeImage(t *testing.T) {
	model := &fakeCompleter{reply: `{"caption": "Waves on Lake Michigan."}`}

	got, err := NewAssistant(model).DescribeImage(context.Background(), ImageSEOInput{
		ImageTitle:    "Lake Michigan shoreline",
		ArticleTopics: []string{"water", "erosion"},
		PostTitle:     "What we're reading: Erosion",
	})

	require.NoError(t, err)
	assert.Equal(t, "Lake Michigan shoreline", got.AltText)
	assert.Equal(t, "Waves on Lake Michigan.", got.Caption)
	assert.Contains(t, model.last.Prompt, "Article topics covered: water, erosion")
}
