// Package chi holds the plain-HTTP plane of the service: the health
// endpoint and the middleware around the mounted MCP handler.
package chi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/logger"
	healthuc "github.com/grandcanyonsmith/mcp-server-canyon/internal/usecase/health"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/version"
)

// Server serves the non-MCP HTTP endpoints.
type Server struct {
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates the HTTP plane server.
func NewServer(health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{health: health, logger: logger}
}

// healthResponse is the GET /health payload.
type healthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Version string                          `json:"version"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Config  map[string]string               `json:"config"`
}

// Health handles GET /health. Reports component checks and which
// required configuration values are present, never the values.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	code := http.StatusOK
	if report.Status != healthuc.Healthy {
		code = http.StatusServiceUnavailable
		logger.FromContext(r.Context()).Warn("health check degraded",
			zap.Any("checks", report.Checks),
			zap.Any("config", report.Config),
		)
	}

	writeJSON(w, code, healthResponse{
		Status:  report.Status,
		Version: version.Version,
		Checks:  report.Checks,
		Config:  report.Config,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{
		"code":    http.StatusText(code),
		"message": message,
	})
}
