package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mpvnode/internal/api/models"
	"github.com/smazurov/mpvnode/internal/player"
)

// registerPlaybackRoutes registers the player control endpoints.
func (s *Server) registerPlaybackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-playback",
		Method:      http.MethodGet,
		Path:        "/api/playback",
		Summary:     "Get Playback",
		Description: "Get the state of the current playback and the outcome of the previous one",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		return &models.PlaybackResponse{Body: s.player.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "start-playback",
		Method:        http.MethodPost,
		Path:          "/api/playback",
		Summary:       "Start Playback",
		Description:   "Close the current playback, if any, and start playing a file, URL or video ID",
		Tags:          []string{"playback"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{400, 401, 404, 409, 500},
	}, func(ctx context.Context, input *models.PlaybackStartRequest) (*models.PlaybackResponse, error) {
		if input.Body.Target == "" && input.Body.VideoID == "" {
			return nil, huma.Error400BadRequest("Target or video_id is required")
		}

		info, err := s.player.Start(ctx, player.Request{
			Target:  input.Body.Target,
			VideoID: input.Body.VideoID,
			Paused:  input.Body.Paused,
		})
		if err != nil {
			s.logger.Warn("Failed to start playback", "target", input.Body.Target, "video_id", input.Body.VideoID, "error", err)
			return nil, toHTTPError(err)
		}
		return &models.PlaybackResponse{Body: info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "play-playback",
		Method:      http.MethodPost,
		Path:        "/api/playback/play",
		Summary:     "Resume Playback",
		Description: "Resume the current playback",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		if err := s.player.Play(); err != nil {
			return nil, toHTTPError(err)
		}
		return &models.PlaybackResponse{Body: s.player.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "pause-playback",
		Method:      http.MethodPost,
		Path:        "/api/playback/pause",
		Summary:     "Pause Playback",
		Description: "Pause the current playback",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		if err := s.player.Pause(); err != nil {
			return nil, toHTTPError(err)
		}
		return &models.PlaybackResponse{Body: s.player.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-playback",
		Method:      http.MethodDelete,
		Path:        "/api/playback",
		Summary:     "Stop Playback",
		Description: "Close the current playback; the player is killed if it does not quit in time",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		if err := s.player.Stop(); err != nil {
			return nil, toHTTPError(err)
		}
		return &models.PlaybackResponse{Body: s.player.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "wait-playback",
		Method:      http.MethodGet,
		Path:        "/api/playback/wait",
		Summary:     "Wait For Playback",
		Description: "Block until the most recent playback finishes and return its exit code",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401, 408, 409},
	}, func(ctx context.Context, input *models.PlaybackWaitRequest) (*models.PlaybackWaitResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, time.Duration(input.TimeoutMS)*time.Millisecond)
		defer cancel()

		code, err := s.player.Wait(ctx)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, huma.NewError(http.StatusRequestTimeout, "Playback still running")
		case err != nil:
			return nil, toHTTPError(err)
		}
		return &models.PlaybackWaitResponse{Body: models.PlaybackWaitData{ExitCode: code}}, nil
	})
}
