package player

import (
	"errors"
	"time"
)

// State of the current playback slot.
type State string

// Player states.
const (
	StateIdle     State = "idle"     // No playback
	StatePlaying  State = "playing"  // Playback running
	StatePaused   State = "paused"   // Playback paused
	StateStopping State = "stopping" // Closing the playback
)

var (
	// ErrIdle is returned for operations that need a current playback.
	ErrIdle = errors.New("no current playback")
	// ErrClosed is returned once the player has been closed.
	ErrClosed = errors.New("player closed")
	// ErrNoTarget is returned by Start for a request without target or video ID.
	ErrNoTarget = errors.New("target or video id is required")
)

// Info is a snapshot of the player.
type Info struct {
	PlaybackID   string    `json:"playback_id,omitempty" doc:"Current playback identifier"`
	Target       string    `json:"target,omitempty" doc:"File path or URL being played"`
	State        State     `json:"state" enum:"idle,playing,paused,stopping" doc:"Player state"`
	PID          int       `json:"pid,omitempty" doc:"Player process ID"`
	StartedAt    time.Time `json:"started_at,omitzero" doc:"When the current playback started"`
	LastExitCode *int      `json:"last_exit_code,omitempty" doc:"Exit code of the previous playback"`
	LastError    string    `json:"last_error,omitempty" doc:"Error of the previous playback"`
}

// Request selects what Start plays.
type Request struct {
	Target  string // local path or URL
	VideoID string // played as ytdl://<id> when Target is empty
	Paused  bool   // leave the playback paused
}
