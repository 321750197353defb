package player

import (
	"log/slog"

	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/mpv"
)

// Factory creates playbacks. *mpv.Factory implements it.
type Factory interface {
	CreatePlayback(target string) (*mpv.Playback, error)
	CreateVideoPlayback(videoID string) (*mpv.Playback, error)
}

// StateChangeCallback is called when the player state changes.
// Used for domain-specific reactions (e.g., CLI progress output).
type StateChangeCallback func(info Info, oldState, newState State, err error)

// Options configures a new Player.
type Options struct {
	// Factory creates playbacks (required).
	Factory Factory

	// OnStateChange is called when the state transitions (optional).
	OnStateChange StateChangeCallback

	// Bus receives PlayerStateChangedEvent (optional).
	Bus *events.Bus

	// Logger for player operations. If nil, uses slog.Default().
	Logger *slog.Logger
}
