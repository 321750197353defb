package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mpvnode/internal/api/models"
)

// registerOptionsRoutes registers the player options endpoint.
func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-player-options",
		Method:      http.MethodGet,
		Path:        "/api/options",
		Summary:     "Get Player Options",
		Description: "Get the options new playbacks are started with. Changes to the [mpv] config section apply here without a restart.",
		Tags:        []string{"configuration"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.PlayerOptionsResponse, error) {
		if s.factory == nil {
			return nil, huma.Error503ServiceUnavailable("Player options are not available")
		}

		opts := s.factory.Options()
		executable := s.factory.Executable()
		if executable == "" {
			executable = opts.Executable
		}
		return &models.PlayerOptionsResponse{
			Body: models.PlayerOptionsData{
				Executable:         executable,
				NoVideo:            opts.NoVideo,
				Fullscreen:         opts.Fullscreen,
				Screen:             opts.Screen,
				ConfigFile:         opts.ConfigFile,
				IgnoreSystemConfig: opts.IgnoreSystemConfig,
				Channel:            string(opts.Channel),
				ShutdownTimeout:    opts.ShutdownTimeout.String(),
				Dir:                s.factory.Dir(),
			},
		}, nil
	})
}
