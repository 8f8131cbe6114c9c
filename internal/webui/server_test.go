package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikiqa/internal/assistant"
	"wikiqa/internal/confluence"
	"wikiqa/internal/llm"
	"wikiqa/internal/logging"
	"wikiqa/internal/remote"
)

type stubFetcher struct {
	pages   map[string]*confluence.Page
	results []confluence.SearchResult
}

func (f *stubFetcher) FetchPage(ctx context.Context, pageID string) (*confluence.Page, error) {
	page, ok := f.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("fetch page %s: %w", pageID, remote.ErrNotFound)
	}
	return page, nil
}

func (f *stubFetcher) SearchPages(ctx context.Context, query string, limit int) ([]confluence.SearchResult, error) {
	return f.results, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	fetcher := &stubFetcher{
		pages: map[string]*confluence.Page{
			"42": {
				ID:        "42",
				Title:     "Runbook",
				URL:       "https://example.atlassian.net/wiki/spaces/OPS/pages/42",
				Content:   "Restart the service with systemctl.",
				Version:   3,
				Space:     "Ops",
				Labels:    []string{"runbook"},
				Ancestors: []string{"Home", "Operations"},
				Children:  []string{},
			},
		},
		results: []confluence.SearchResult{{ID: "42", Title: "Runbook", Space: "Ops"}},
	}

	factory := func() *assistant.Orchestrator {
		client := &llm.MockClient{Reply: "Use systemctl restart."}
		return assistant.NewOrchestrator(fetcher, assistant.NewAnswerer(client, 0, logging.Nop()), logging.Nop())
	}

	server, err := NewServer(factory, DefaultServerConfig(), logging.Nop())
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, server *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, server *Server) string {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "no_page_loaded", resp.State)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLoadPageAndAsk(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/page", loadPageRequest{PageID: "42"})
	require.Equal(t, http.StatusOK, rec.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Runbook", page.Title)
	assert.Equal(t, []string{"Operations", "Home"}, page.Breadcrumbs)
	assert.Positive(t, page.Chars)

	rec = doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/ask", askRequest{Question: "how do I restart?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "Use systemctl restart.", answer.Answer)
	assert.Equal(t, "page_loaded", answer.State)

	rec = doJSON(t, server, http.MethodGet, "/api/sessions/"+id+"/turns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var turns turnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	require.Len(t, turns.Turns, 2)
	assert.Equal(t, "user", turns.Turns[0].Role)
	assert.Equal(t, "assistant", turns.Turns[1].Role)
}

func TestAskWithoutPageConflicts(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/ask", askRequest{Question: "hi?"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoadUnknownPageIsUniformNotFound(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/page", loadPageRequest{PageID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "page could not be loaded")
}

func TestLoadPageValidation(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/page", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/api/sessions/nope/ask", askRequest{Question: "q"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportLifecycle(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	// Empty conversation: no artifact.
	rec := doJSON(t, server, http.MethodGet, "/api/sessions/"+id+"/export", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/page", loadPageRequest{PageID: "42"})
	doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/ask", askRequest{Question: "q"})

	rec = doJSON(t, server, http.MethodGet, "/api/sessions/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "chat_history_")

	var turns []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	assert.Len(t, turns, 2)
}

func TestClear(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/page", loadPageRequest{PageID: "42"})
	doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/ask", askRequest{Question: "q"})

	rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+id+"/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/sessions/"+id+"/turns", nil)
	var turns turnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	assert.Empty(t, turns.Turns)
}

func TestSearch(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/search?q=runbook&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "42", resp.Results[0].ID)

	rec = doJSON(t, server, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/search?q=x&limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsAreIndependent(t *testing.T) {
	server := newTestServer(t)
	first := createSession(t, server)
	second := createSession(t, server)

	doJSON(t, server, http.MethodPost, "/api/sessions/"+first+"/page", loadPageRequest{PageID: "42"})

	// The second session still has no page.
	rec := doJSON(t, server, http.MethodGet, "/api/sessions/"+second+"/page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
