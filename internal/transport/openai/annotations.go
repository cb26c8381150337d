package openai

import (
	"encoding/json"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
)

// annotation mirrors the Assistants API annotation object. Every field
// is optional on the wire; the SDK hands annotations over as untyped
// values, so this is the single translation point for their shape.
type annotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	FileCitation *struct {
		FileID string `json:"file_id"`
		Quote  string `json:"quote"`
	} `json:"file_citation"`
	FilePath *struct {
		FileID string `json:"file_id"`
	} `json:"file_path"`
}

// parseAnnotations converts raw annotation values into citations,
// preserving order. Entries without a recognizable file reference are
// skipped rather than failing the whole response.
func parseAnnotations(raw []any) []domain.Citation {
	citations := make([]domain.Citation, 0, len(raw))
	for _, r := range raw {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}

		var a annotation
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}

		switch {
		case a.FileCitation != nil && a.FileCitation.FileID != "":
			citations = append(citations, domain.Citation{
				FileID: a.FileCitation.FileID,
				Quote:  a.FileCitation.Quote,
				Marker: a.Text,
			})
		case a.FilePath != nil && a.FilePath.FileID != "":
			citations = append(citations, domain.Citation{
				FileID: a.FilePath.FileID,
				Marker: a.Text,
			})
		}
	}
	return citations
}
