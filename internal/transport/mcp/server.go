// Package mcp exposes the retrieval adapter as MCP tools over the
// official SDK.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/metrics"
)

// Retriever is the adapter surface served as tools.
type Retriever interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Fetch(ctx context.Context, id string) (domain.Document, error)
}

// Server wraps the MCP SDK server around the retrieval adapter.
type Server struct {
	mcpServer *mcp.Server
	retriever Retriever
	logger    *zap.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Retriever Retriever
	Logger    *zap.Logger
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query string"`
}

// SearchOutput is the structured result of the search tool.
type SearchOutput struct {
	Results []domain.SearchResult `json:"results"`
}

// FetchInput is the input schema for the fetch tool.
type FetchInput struct {
	ID string `json:"id" jsonschema:"unique document identifier, as returned by a prior search"`
}

// NewServer creates an MCP server exposing the search and fetch tools.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, &mcp.ServerOptions{
			Instructions: "Search a hosted vector store of documents. Use the search tool " +
				"to find documents relevant to a query, then the fetch tool to read the " +
				"full content of a result by its id.",
		}),
		retriever: cfg.Retriever,
		logger:    logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return s, nil
}

// Run serves MCP on the given transport. Blocks until the context is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// HTTPHandler returns the streamable HTTP handler for this server,
// suitable for mounting on a router.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

func (s *Server) registerTools() error {
	searchSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for search tool: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "search",
		Description: "Search for relevant documents in the vector store. " +
			"Returns results ordered by relevance, each with an id usable with fetch.",
		InputSchema: searchSchema,
	}, s.handleSearch)

	fetchSchema, err := jsonschema.For[FetchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for fetch tool: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "fetch",
		Description: "Fetch the full content of a document by its id.",
		InputSchema: fetchSchema,
	}, s.handleFetch)

	return nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, *SearchOutput, error) {
	results, err := s.retriever.Search(ctx, in.Query)
	if err != nil {
		return s.toolError("search", err), nil, nil
	}

	metrics.ToolCallsTotal.WithLabelValues("search", "success").Inc()
	return nil, &SearchOutput{Results: results}, nil
}

func (s *Server) handleFetch(ctx context.Context, _ *mcp.CallToolRequest, in FetchInput) (*mcp.CallToolResult, *domain.Document, error) {
	doc, err := s.retriever.Fetch(ctx, in.ID)
	if err != nil {
		return s.toolError("fetch", err), nil, nil
	}

	metrics.ToolCallsTotal.WithLabelValues("fetch", "success").Inc()
	return nil, &doc, nil
}

// toolError converts an adapter error into an MCP tool error result.
// Invalid input and not-found surface their reason; backend failures are
// reported generically with the detail kept in the server log.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	var status, msg string
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		status, msg = "invalid_input", "search query must be a non-empty string"
	case errors.Is(err, domain.ErrEmptyID):
		status, msg = "invalid_input", "document id must be a non-empty string"
	case errors.Is(err, domain.ErrDocumentNotFound):
		status, msg = "not_found", "no document found for the given id"
	default:
		status, msg = "backend_error", tool+" failed: the document backend is unavailable"
		s.logger.Error("tool call failed",
			zap.String("tool", tool),
			zap.Error(err),
		)
	}

	metrics.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
