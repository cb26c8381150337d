// Package openai talks to the OpenAI Assistants and Files APIs. It is
// the only package that knows the vendor wire format; everything it
// returns is expressed in this service's own types and error taxonomy.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/domain"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/metrics"
)

// Client runs file-search queries through a configured assistant and
// retrieves files from the vendor. It holds no mutable state beyond the
// immutable configuration and is safe for concurrent use.
type Client struct {
	api           *openai.Client
	vectorStoreID string
	assistantID   string
	pollInterval  time.Duration
	runTimeout    time.Duration
	logger        *zap.Logger
}

// Config holds the backend client settings.
type Config struct {
	APIKey        string
	BaseURL       string
	VectorStoreID string
	AssistantID   string
	PollInterval  time.Duration
	RunTimeout    time.Duration
	Logger        *zap.Logger
}

// NewClient creates an Assistants API client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:           openai.NewClientWithConfig(clientCfg),
		vectorStoreID: cfg.VectorStoreID,
		assistantID:   cfg.AssistantID,
		pollInterval:  pollInterval,
		runTimeout:    runTimeout,
		logger:        logger,
	}
}

// FileSearch asks the assistant to answer the query using the configured
// vector store and returns the answer with its citations, in the order
// the vendor produced them. The working thread is deleted best-effort
// after the run.
func (c *Client) FileSearch(ctx context.Context, query string) (domain.Answer, error) {
	start := time.Now()

	answer, err := c.fileSearch(ctx, query)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues("file_search", status).Inc()
	metrics.BackendRequestDuration.WithLabelValues("file_search").Observe(time.Since(start).Seconds())

	return answer, err
}

func (c *Client) fileSearch(ctx context.Context, query string) (domain.Answer, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{
		ToolResources: &openai.ToolResourcesRequest{
			FileSearch: &openai.FileSearchToolResourcesRequest{
				VectorStoreIDs: []string{c.vectorStoreID},
			},
		},
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("create thread: %w", parseAPIError(err))
	}
	defer c.deleteThread(thread.ID)

	if _, err = c.api.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: query,
	}); err != nil {
		return domain.Answer{}, fmt.Errorf("create message: %w", parseAPIError(err))
	}

	run, err := c.api.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("create run: %w", parseAPIError(err))
	}

	if err = c.waitForRun(ctx, thread.ID, run.ID); err != nil {
		return domain.Answer{}, err
	}

	limit := 1
	order := "desc"
	msgs, err := c.api.ListMessage(ctx, thread.ID, &limit, &order, nil, nil, &run.ID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("list messages: %w", parseAPIError(err))
	}

	for _, m := range msgs.Messages {
		if m.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		for _, part := range m.Content {
			if part.Type != "text" || part.Text == nil {
				continue
			}
			return domain.Answer{
				Text:      part.Text.Value,
				Citations: parseAnnotations(part.Text.Annotations),
			}, nil
		}
	}

	return domain.Answer{}, fmt.Errorf("run %s produced no assistant text: %w", run.ID, domain.ErrBackend)
}

// waitForRun polls the run until it reaches a terminal status. The poll
// loop respects both the caller's context and the configured run timeout.
func (c *Client) waitForRun(ctx context.Context, threadID, runID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		run, err := c.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("retrieve run: %w", parseAPIError(err))
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusQueued, openai.RunStatusInProgress:
			// keep polling
		default:
			detail := string(run.Status)
			if run.LastError != nil {
				detail = fmt.Sprintf("%s (%s: %s)", run.Status, run.LastError.Code, run.LastError.Message)
			}
			return fmt.Errorf("run %s ended with status %s: %w", runID, detail, domain.ErrBackend)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for run %s: %v: %w", runID, ctx.Err(), domain.ErrBackend)
		case <-ticker.C:
		}
	}
}

// RetrieveFile returns metadata for a file id. A vendor 404 maps to
// domain.ErrDocumentNotFound.
func (c *Client) RetrieveFile(ctx context.Context, id string) (domain.FileInfo, error) {
	start := time.Now()

	f, err := c.api.GetFile(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues("retrieve_file", status).Inc()
	metrics.BackendRequestDuration.WithLabelValues("retrieve_file").Observe(time.Since(start).Seconds())

	if err != nil {
		if isNotFound(err) {
			return domain.FileInfo{}, fmt.Errorf("retrieve file %s: %w", id, domain.ErrDocumentNotFound)
		}
		return domain.FileInfo{}, fmt.Errorf("retrieve file %s: %w", id, parseAPIError(err))
	}

	return domain.FileInfo{
		ID:        f.ID,
		Filename:  f.FileName,
		Purpose:   f.Purpose,
		Bytes:     f.Bytes,
		CreatedAt: f.CreatedAt,
	}, nil
}

// FileContent downloads the full content of a file id.
func (c *Client) FileContent(ctx context.Context, id string) (string, error) {
	start := time.Now()

	content, err := c.fileContent(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues("file_content", status).Inc()
	metrics.BackendRequestDuration.WithLabelValues("file_content").Observe(time.Since(start).Seconds())

	return content, err
}

func (c *Client) fileContent(ctx context.Context, id string) (string, error) {
	raw, err := c.api.GetFileContent(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("file content %s: %w", id, domain.ErrDocumentNotFound)
		}
		return "", fmt.Errorf("file content %s: %w", id, parseAPIError(err))
	}
	defer func() { _ = raw.Close() }()

	data, err := io.ReadAll(raw)
	if err != nil {
		return "", fmt.Errorf("read file content %s: %v: %w", id, err, domain.ErrBackend)
	}
	return string(data), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// deleteThread removes a working thread best-effort. Uses its own short
// context so cleanup still runs when the request context is cancelled.
func (c *Client) deleteThread(threadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.api.DeleteThread(ctx, threadID); err != nil {
		c.logger.Warn("failed to delete thread",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
	}
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrBackend. Only the file endpoints
// are allowed to read a 404 as "document not found" (see isNotFound);
// here a 404 on a thread or run still means the backend is misbehaving.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrBackend)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai API status %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrBackend)
	}

	return fmt.Errorf("openai request failed: %v: %w", err, domain.ErrBackend)
}

// isNotFound reports whether the vendor answered 404.
func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}
