// Package domain holds the retrieval data model shared across layers.
// All values are constructed per request from the backend response and
// discarded after serialization; nothing here is persisted.
package domain

import (
	"strings"
	"unicode/utf8"
)

// SearchResult is one backend citation normalized into the fixed result
// schema. Ordering among results preserves the backend's relevance order.
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Document is the full content for a single identifier.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// titleExcerptLimit caps titles derived from excerpt text.
const titleExcerptLimit = 80

// DeriveTitle picks a non-empty title: the cited filename if the backend
// supplied one, otherwise a truncated excerpt, otherwise the id itself.
func DeriveTitle(filename, excerpt, id string) string {
	if filename != "" {
		return filename
	}
	if t := truncateRunes(strings.TrimSpace(excerpt), titleExcerptLimit); t != "" {
		return t
	}
	return id
}

// SynthesizeURL builds a placeholder URL for documents the backend does
// not expose a location for. The scheme marks it as synthetic while
// keeping the lookup key recoverable.
func SynthesizeURL(id string) string {
	return "openai://file/" + id
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
