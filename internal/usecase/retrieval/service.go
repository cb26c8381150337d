// Package retrieval is the adapter between the tool surface and the
// hosted vector-store backend: it validates caller input, delegates
// search and lookup to the backend, and normalizes responses into the
// fixed result schema.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/metrics"
)

// excerptLimit caps result text derived from the whole assistant answer.
const excerptLimit = 500

// Service implements the search and fetch operations. It holds no
// mutable state; concurrent calls share only the injected backend.
type Service struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a retrieval service.
func New(backend Backend, logger *zap.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// Search forwards the query to the backend and maps each citation to one
// SearchResult, preserving backend order. Zero citations is a valid,
// empty outcome. Any backend failure fails the whole call; partial
// results are never returned.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	answer, err := s.backend.FileSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("file search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		results = append(results, s.resultFromCitation(ctx, c, answer.Text))
	}

	metrics.SearchResultsReturned.Observe(float64(len(results)))

	s.logger.Info("search completed",
		zap.Int("results", len(results)),
		zap.Int("query_len", len(query)),
	)
	return results, nil
}

// Fetch resolves a cited id to the full document. The id is an opaque
// key owned by the backend; nothing is cached locally.
func (s *Service) Fetch(ctx context.Context, id string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, domain.ErrEmptyID
	}

	info, err := s.backend.RetrieveFile(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s: %w", id, err)
	}

	text, err := s.backend.FileContent(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s content: %w", id, err)
	}
	if !utf8.ValidString(text) {
		// The files API serves raw bytes; binary sources (PDF and friends)
		// have no text rendition to hand back.
		text = "binary file content not available"
	}

	s.logger.Info("document fetched",
		zap.String("id", id),
		zap.String("filename", info.Filename),
		zap.Int("bytes", info.Bytes),
	)

	return domain.Document{
		ID:    id,
		Title: domain.DeriveTitle(info.Filename, text, id),
		Text:  text,
		URL:   domain.SynthesizeURL(id),
		Metadata: map[string]string{
			"filename":   info.Filename,
			"purpose":    info.Purpose,
			"bytes":      strconv.Itoa(info.Bytes),
			"created_at": strconv.FormatInt(info.CreatedAt, 10),
		},
	}, nil
}

// resultFromCitation normalizes one citation. The excerpt prefers the
// citation's own quote; older API versions attached one, v2 does not,
// in which case the shared answer text stands in. Filename lookup is
// best-effort: a title is nice to have, but its absence must not fail
// the search.
func (s *Service) resultFromCitation(ctx context.Context, c domain.Citation, answer string) domain.SearchResult {
	text := c.Quote
	if text == "" {
		text = truncate(answer, excerptLimit)
	}
	if text == "" {
		text = c.Marker
	}

	var filename string
	if info, err := s.backend.RetrieveFile(ctx, c.FileID); err == nil {
		filename = info.Filename
	} else {
		s.logger.Debug("filename lookup failed", zap.String("id", c.FileID), zap.Error(err))
	}

	title := domain.DeriveTitle(filename, text, c.FileID)
	if text == "" {
		// Degenerate payload: no quote, no answer text, no marker.
		// The title (filename or id) is the only text left to show.
		text = title
	}

	return domain.SearchResult{
		ID:    c.FileID,
		Title: title,
		Text:  text,
		URL:   domain.SynthesizeURL(c.FileID),
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
