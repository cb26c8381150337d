package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
)

// --- Mocks ---

type mockRetriever struct {
	results   []domain.SearchResult
	searchErr error
	doc       domain.Document
	fetchErr  error
	lastQuery string
	lastID    string
}

func (m *mockRetriever) Search(_ context.Context, query string) ([]domain.SearchResult, error) {
	m.lastQuery = query
	return m.results, m.searchErr
}

func (m *mockRetriever) Fetch(_ context.Context, id string) (domain.Document, error) {
	m.lastID = id
	return m.doc, m.fetchErr
}

func newTestServer(t *testing.T, r Retriever) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Name:      "test",
		Version:   "v0.0.1",
		Retriever: r,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s
}

// --- Tests ---

func TestNewServer_RequiresConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Version: "v1", Retriever: &mockRetriever{}}},
		{"missing version", Config{Name: "x", Retriever: &mockRetriever{}}},
		{"missing retriever", Config{Name: "x", Version: "v1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewServer(tc.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHandleSearch_Success(t *testing.T) {
	retriever := &mockRetriever{
		results: []domain.SearchResult{
			{ID: "file-abc", Title: "feline_ethology.pdf", Text: "excerpt", URL: "openai://file/file-abc"},
		},
	}
	s := newTestServer(t, retriever)

	res, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "cats behavior"})
	if err != nil {
		t.Fatalf("handleSearch failed: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no error result, got %+v", res)
	}
	if retriever.lastQuery != "cats behavior" {
		t.Errorf("query not forwarded, got %q", retriever.lastQuery)
	}
	if len(out.Results) != 1 || out.Results[0].ID != "file-abc" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestHandleSearch_EmptyQueryIsToolError(t *testing.T) {
	retriever := &mockRetriever{searchErr: domain.ErrEmptyQuery}
	s := newTestServer(t, retriever)

	res, out, err := s.handleSearch(context.Background(), nil, SearchInput{})
	if err != nil {
		t.Fatalf("invalid input must not be a protocol error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatal("expected tool error result")
	}
	if out != nil {
		t.Errorf("expected no output on error, got %+v", out)
	}
}

func TestHandleSearch_BackendErrorIsGeneric(t *testing.T) {
	retriever := &mockRetriever{searchErr: domain.ErrBackend}
	s := newTestServer(t, retriever)

	res, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "cats"})
	if err != nil {
		t.Fatalf("backend failure must not be a protocol error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatal("expected tool error result")
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if text == "" || strings.Contains(text, "openai") || strings.Contains(text, "thread") {
		t.Errorf("backend details must not leak to the caller: %q", text)
	}
}

func TestHandleFetch_Success(t *testing.T) {
	retriever := &mockRetriever{
		doc: domain.Document{ID: "file-abc", Title: "t", Text: "full text", URL: "openai://file/file-abc"},
	}
	s := newTestServer(t, retriever)

	res, out, err := s.handleFetch(context.Background(), nil, FetchInput{ID: "file-abc"})
	if err != nil {
		t.Fatalf("handleFetch failed: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no error result, got %+v", res)
	}
	if out.ID != "file-abc" || out.Text != "full text" {
		t.Errorf("unexpected document: %+v", out)
	}
}

func TestHandleFetch_NotFoundIsToolError(t *testing.T) {
	retriever := &mockRetriever{fetchErr: domain.ErrDocumentNotFound}
	s := newTestServer(t, retriever)

	res, out, err := s.handleFetch(context.Background(), nil, FetchInput{ID: "file-unknown"})
	if err != nil {
		t.Fatalf("not-found must not be a protocol error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatal("expected tool error result")
	}
	if out != nil {
		t.Errorf("expected no document on error, got %+v", out)
	}
}
