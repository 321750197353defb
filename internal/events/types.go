package events

// Event type constants for kelindar/event.
const (
	TypePlaybackStarted uint32 = iota + 1
	TypePlaybackCommand
	TypePlaybackFinished
	TypePlaybackClosed
	TypePlayerStateChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PlaybackStartedEvent is published once the player subprocess is running.
type PlaybackStartedEvent struct {
	PlaybackID string `json:"playback_id" example:"0b9c6c1e-3f1a-4a4e-9a59-2f3f0f0c7d11" doc:"Playback identifier"`
	Target     string `json:"target" example:"ytdl://dQw4w9WgXcQ" doc:"File path or URL being played"`
	PID        int    `json:"pid" example:"4242" doc:"Player process ID"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaybackStartedEvent.
func (e PlaybackStartedEvent) Type() uint32 { return TypePlaybackStarted }

// PlaybackCommandEvent is published for every control command relayed to the player.
type PlaybackCommandEvent struct {
	PlaybackID string `json:"playback_id" doc:"Playback identifier"`
	Command    string `json:"command" example:"set pause no" doc:"Command line sent to the player"`
	Error      string `json:"error,omitempty" doc:"Send failure, if any"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaybackCommandEvent.
func (e PlaybackCommandEvent) Type() uint32 { return TypePlaybackCommand }

// PlaybackFinishedEvent is published when the player subprocess has exited,
// whether it reached the end of the media or was closed.
type PlaybackFinishedEvent struct {
	PlaybackID string `json:"playback_id" doc:"Playback identifier"`
	Target     string `json:"target" doc:"File path or URL that was played"`
	ExitCode   int    `json:"exit_code" example:"0" doc:"Player exit code"`
	Requested  bool   `json:"requested" doc:"True if the exit followed a close request"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaybackFinishedEvent.
func (e PlaybackFinishedEvent) Type() uint32 { return TypePlaybackFinished }

// PlaybackClosedEvent is published when Close has completed.
type PlaybackClosedEvent struct {
	PlaybackID string `json:"playback_id" doc:"Playback identifier"`
	Forced     bool   `json:"forced" doc:"True if the player had to be killed"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaybackClosedEvent.
func (e PlaybackClosedEvent) Type() uint32 { return TypePlaybackClosed }

// PlayerStateChangedEvent represents a transition of the current playback slot.
type PlayerStateChangedEvent struct {
	PlaybackID string `json:"playback_id,omitempty" doc:"Playback identifier"`
	Target     string `json:"target,omitempty" doc:"Current target"`
	OldState   string `json:"old_state" example:"paused" doc:"Previous state"`
	NewState   string `json:"new_state" example:"playing" doc:"New state"`
	Error      string `json:"error,omitempty" doc:"Error that caused the transition"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayerStateChangedEvent.
func (e PlayerStateChangedEvent) Type() uint32 { return TypePlayerStateChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"mpv" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
