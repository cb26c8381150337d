package retrieval

import (
	"context"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
)

// Backend is the hosted vector-store surface the adapter depends on.
// Implementations own identifiers end to end: every FileID cited by
// FileSearch must be resolvable through RetrieveFile and FileContent for
// the lifetime of the store.
type Backend interface {
	// FileSearch answers a query from the vector store, returning the
	// assistant answer and its citations in backend relevance order.
	FileSearch(ctx context.Context, query string) (domain.Answer, error)

	// RetrieveFile returns metadata for a cited file id. Returns an error
	// wrapping domain.ErrDocumentNotFound when the backend has no such id.
	RetrieveFile(ctx context.Context, id string) (domain.FileInfo, error)

	// FileContent returns the full text for a cited file id.
	FileContent(ctx context.Context, id string) (string, error)
}
