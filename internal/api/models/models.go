package models

import (
	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/metrics"
	"github.com/smazurov/mpvnode/internal/player"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Version string `json:"version" example:"1.2.0" doc:"Application version"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go runtime version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Playback models
type PlaybackStartData struct {
	Target  string `json:"target,omitempty" example:"/srv/media/intro.mkv" doc:"Local file path or URL to play"`
	VideoID string `json:"video_id,omitempty" example:"dQw4w9WgXcQ" doc:"Video identifier played through youtube-dl when target is empty"`
	Paused  bool   `json:"paused,omitempty" doc:"Leave the playback paused after start"`
}

type PlaybackStartRequest struct {
	Body PlaybackStartData
}

type PlaybackResponse struct {
	Body player.Info
}

// PlaybackWaitRequest bounds how long a wait request blocks.
type PlaybackWaitRequest struct {
	TimeoutMS int `query:"timeout_ms" default:"30000" minimum:"1" doc:"Maximum time to wait, in milliseconds"`
}

type PlaybackWaitData struct {
	ExitCode int `json:"exit_code" example:"0" doc:"Exit code of the finished playback"`
}

type PlaybackWaitResponse struct {
	Body PlaybackWaitData
}

// Player options models
type PlayerOptionsData struct {
	Executable         string `json:"executable" example:"/usr/bin/mpv" doc:"Resolved player executable"`
	NoVideo            bool   `json:"no_video" doc:"Disable video output"`
	Fullscreen         bool   `json:"fullscreen" doc:"Play fullscreen"`
	Screen             int    `json:"screen" example:"1" doc:"Screen index for playback"`
	ConfigFile         string `json:"config_file,omitempty" doc:"Extra player config included with --include"`
	IgnoreSystemConfig bool   `json:"ignore_system_config" doc:"Skip the system player configuration"`
	Channel            string `json:"channel" example:"auto" enum:"auto,stdin,file" doc:"Command channel backend"`
	ShutdownTimeout    string `json:"shutdown_timeout" example:"5s" doc:"Grace period before a playback is killed"`
	Dir                string `json:"dir,omitempty" doc:"Working directory for command files"`
}

type PlayerOptionsResponse struct {
	Body PlayerOptionsData
}

// Metrics models
type MetricsResponse struct {
	Body metrics.PlaybackStats
}

// Log models
type LogsRequest struct {
	Since  uint64 `query:"since" doc:"Only return entries with a sequence number above this one"`
	Module string `query:"module" doc:"Only return entries from this module"`
	Level  string `query:"level" doc:"Minimum level: debug, info, warn or error"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int                `json:"count" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
