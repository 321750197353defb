package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/player"
	"github.com/smazurov/mpvnode/internal/process"
)

// toHTTPError maps player and playback errors to Huma status errors.
func toHTTPError(err error) error {
	var mpvErr *mpv.Error
	switch {
	case errors.As(err, &mpvErr):
		switch mpvErr.Code {
		case mpv.ErrCodeTargetNotFound:
			return huma.Error404NotFound(mpvErr.Message, err)
		case mpv.ErrCodeInvalidOptions:
			return huma.Error400BadRequest(mpvErr.Message, err)
		case mpv.ErrCodeNotInitialized:
			return huma.Error503ServiceUnavailable(mpvErr.Message, err)
		}
		return huma.Error500InternalServerError(mpvErr.Message, err)
	case errors.Is(err, player.ErrIdle):
		return huma.Error409Conflict("No playback is running", err)
	case errors.Is(err, player.ErrClosed), errors.Is(err, process.ErrClosed):
		return huma.Error409Conflict("Playback is closing", err)
	case errors.Is(err, player.ErrNoTarget):
		return huma.Error400BadRequest("Target or video_id is required", err)
	case errors.Is(err, process.ErrInvalidCommand):
		return huma.Error400BadRequest("Invalid command", err)
	default:
		return huma.Error500InternalServerError("Playback operation failed", err)
	}
}
