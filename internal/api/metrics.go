package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mpvnode/internal/api/models"
	"github.com/smazurov/mpvnode/internal/metrics"
)

// registerMetricsRoutes registers the JSON metrics snapshot endpoint.
// The Prometheus exposition is served separately on /metrics.
func (s *Server) registerMetricsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-metrics",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Playback Metrics",
		Description: "Snapshot of playback counters: running, started, clean and failed exits, forced kills and commands",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.MetricsResponse, error) {
		return &models.MetricsResponse{Body: metrics.GetPlaybackStats()}, nil
	})
}
