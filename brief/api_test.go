package brief

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Save(context.Context, *Packet) error { return errors.New("disk full") }
func (failingStore) List(context.Context) ([]Packet, error) { return nil, errors.New("disk full") }
func (failingStore) Close() error { return nil }

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// TestAPI_SaveAndList verifies saved briefs come back from the list route
func TestAPI_SaveAndList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := NewBriefAPIServer(newSQLiteStore(t), nil)
	server.now = func() time.Time { return time.Date(2026, time.March, 4, 15, 0, 0, 0, time.UTC) }
	router := server.SetupRouter()

	w := do(router, http.MethodGet, "/api/v1/briefs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"briefs": []}`, w.Body.String())

	payload, err := json.Marshal(SaveBriefRequest{PostURL: "https://planetdetroit.org/p", Articles: packetArticles()})
	require.NoError(t, err)

	w = do(router, http.MethodPost, "/api/v1/briefs", string(payload))
	require.Equal(t, http.StatusOK, w.Code)

	var saved struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		Brief   Packet `json:"brief"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	assert.Equal(t, saved.ID, saved.Brief.ID)
	assert.Equal(t, "News brief — Mar 4, 2026", saved.Brief.Title)

	w = do(router, http.MethodGet, "/api/v1/briefs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listed struct {
		Briefs []Packet `json:"briefs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Briefs, 1)
	assert.Equal(t, saved.ID, listed.Briefs[0].ID)
	assert.Equal(t, packetArticles(), listed.Briefs[0].Articles)
}

// TestAPI_SaveErrors verifies validation and storage failures
func TestAPI_SaveErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := do(NewBriefAPIServer(newSQLiteStore(t), nil).SetupRouter(), http.MethodPost, "/api/v1/briefs", `{"title": "Empty", "articles": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "At least one article is required")

	router := NewBriefAPIServer(failingStore{}, nil).SetupRouter()

	payload, err := json.Marshal(SaveBriefRequest{Articles: packetArticles()})
	require.NoError(t, err)
	w = do(router, http.MethodPost, "/api/v1/briefs", string(payload))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")

	w = do(router, http.MethodGet, "/api/v1/briefs", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestAPI_Format verifies every rendering is returned with the post link
func TestAPI_Format(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewBriefAPIServer(failingStore{}, nil).SetupRouter()

	payload, err := json.Marshal(FormatRequest{
		Articles:  sampleArticles(),
		PostURL:   "https://planetdetroit.org/p",
		WordPress: WordPressOptions{Headline: "Weekly"},
	})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/v1/briefs/format", string(payload))
	require.Equal(t, http.StatusOK, w.Code)

	var resp FormatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, HTML(sampleArticles()), resp.HTML)
	assert.Equal(t, NewsletterPlaintext(sampleArticles(), "https://planetdetroit.org/p"), resp.NewsletterPlaintext)
	assert.Contains(t, resp.NewsletterHTML, "Learn more...")
	assert.True(t, strings.HasPrefix(resp.WordPress, "<h1>Weekly</h1>"))
}
