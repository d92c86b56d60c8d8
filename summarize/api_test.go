package summarize

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiFixture routes every Anthropic key to one fake and remembers the key.
type apiFixture struct {
	claude  *fakeCompleter
	gemini  *fakeCompleter
	lastKey string
}

func (f *apiFixture) router(defaultKey string, withGemini bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	var gemini llm.Completer
	if withGemini {
		gemini = f.gemini
	}
	factory := func(apiKey string) llm.Completer {
		f.lastKey = apiKey
		return f.claude
	}
	return NewSummarizeAPIServer(factory, defaultKey, gemini, nil).SetupRouter()
}

func newAPIFixture() *apiFixture {
	return &apiFixture{claude: &fakeCompleter{}, gemini: &fakeCompleter{}}
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func articlesJSON(t *testing.T, articles []Input) string {
	t.Helper()
	data, err := json.Marshal(articles)
	require.NoError(t, err)
	return string(data)
}

// TestAPI_Summarize verifies valid articles are summarized with the
// request key
func TestAPI_Summarize(t *testing.T) {
	f := newAPIFixture()
	f.claude.reply = `[{"id": "a1", "kicker": "Up:", "summary": "Levels rose.", "suggestedEmoji": "🌊"}]`
	router := f.router("env-key", false)

	articles := append(sampleInputs(), Input{ID: "short", Headline: "h", Content: "too short", SourceName: "s"})
	w := post(router, "/api/v1/summarize", `{"apiKey": "req-key", "articles": `+articlesJSON(t, articles)+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Len(t, resp["summaries"], 1)
	assert.Equal(t, "req-key", f.lastKey)
	assert.NotContains(t, f.claude.last.Prompt, "too short")
}

// TestAPI_Summarize_DefaultKey verifies the configured key is the fallback
func TestAPI_Summarize_DefaultKey(t *testing.T) {
	f := newAPIFixture()
	f.claude.reply = `[]`
	router := f.router("env-key", false)

	w := post(router, "/api/v1/summarize", `{"articles": `+articlesJSON(t, sampleInputs())+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "env-key", f.lastKey)
}

// TestAPI_Summarize_Validation verifies requests that never reach the
// model
func TestAPI_Summarize_Validation(t *testing.T) {
	f := newAPIFixture()

	w := post(f.router("", false), "/api/v1/summarize", `{"articles": `+articlesJSON(t, sampleInputs())+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "API key is required")

	router := f.router("env-key", false)

	w = post(router, "/api/v1/summarize", `{"articles": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(router, "/api/v1/summarize", `{"articles": [{"id": "x", "headline": "h", "content": "short", "sourceName": "s"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No valid articles")

	assert.Zero(t, f.claude.calls)
}

// TestAPI_Summarize_ModelErrors verifies retryable failures are 503 and
// the rest 400
func TestAPI_Summarize_ModelErrors(t *testing.T) {
	f := newAPIFixture()
	router := f.router("env-key", false)
	body := `{"articles": ` + articlesJSON(t, sampleInputs()) + `}`

	f.claude.reply = "no json here"
	w := post(router, "/api/v1/summarize", body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Could not parse JSON from response")

	f.claude.err = &llm.Error{Message: "Invalid API key. Please check your Anthropic API key.", Retryable: false}
	w = post(router, "/api/v1/summarize", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

// TestAPI_SuggestTitle verifies the title prefix and missing key handling
func TestAPI_SuggestTitle(t *testing.T) {
	f := newAPIFixture()
	f.claude.reply = "  Polar vortex \n"

	w := post(f.router("env-key", false), "/api/v1/suggest-title",
		`{"articles": [{"kicker": "Cold:", "summary": "It is cold.", "sourceName": "MLive"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What we're reading: Polar vortex", decode(t, w)["title"])

	w = post(f.router("env-key", false), "/api/v1/suggest-title", `{"articles": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(f.router("", false), "/api/v1/suggest-title", `{"articles": []}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// TestAPI_SummarizeGemini verifies defaults and the echoed source name
func TestAPI_SummarizeGemini(t *testing.T) {
	f := newAPIFixture()
	f.gemini.reply = "```json\n{\"summary\": \"Pipes burst.\"}\n```"
	router := f.router("", true)

	w := post(router, "/api/v1/summarize-gemini",
		`{"url": "https://example.com/a", "headline": "Pipes burst across downtown Detroit overnight", "content": "Body text", "sourceName": "Detroit News"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "📰", resp["emoji"])
	assert.Equal(t, "Pipes burst across downtown De", resp["caption"])
	assert.Equal(t, "Pipes burst.", resp["summary"])
	assert.Equal(t, "Detroit News", resp["sourceName"])

	w = post(router, "/api/v1/summarize-gemini", `{"headline": "h"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAPI_GeminiNotConfigured verifies Gemini routes without a key
func TestAPI_GeminiNotConfigured(t *testing.T) {
	router := newAPIFixture().router("env-key", false)

	for _, path := range []string{"/api/v1/summarize-gemini", "/api/v1/seo-suggestions", "/api/v1/image-seo"} {
		w := post(router, path, `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "GEMINI_API_KEY", path)
	}
}

// TestAPI_SEOSuggestions verifies suggestions and search terms pass
// through
func TestAPI_SEOSuggestions(t *testing.T) {
	f := newAPIFixture()
	f.gemini.reply = `{"suggestions": [{"headline": "Michigan water news", "metaDescription": "This week."}], "imageSearchTerms": ["lake"]}`
	router := f.router("", true)

	w := post(router, "/api/v1/seo-suggestions",
		`{"currentTitle": "Weekly", "articles": [{"emoji": "🌊", "caption": "Lakes", "summary": "Up.", "sourceName": "MLive"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Len(t, resp["suggestions"], 1)
	assert.Equal(t, []any{"lake"}, resp["imageSearchTerms"])

	w = post(router, "/api/v1/seo-suggestions", `{"articles": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAPI_ImageSEO verifies the alt text fallback
func TestAPI_ImageSEO(t *testing.T) {
	f := newAPIFixture()
	f.gemini.reply = `{"caption": "A lake at dawn.", "description": "Lake photo"}`
	router := f.router("", true)

	w := post(router, "/api/v1/image-seo", `{"imageTitle": "Lake Michigan sunrise", "articleTopics": ["water"], "postTitle": "Weekly"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Lake Michigan sunrise", resp["altText"])
	assert.Equal(t, "A lake at dawn.", resp["caption"])
}
