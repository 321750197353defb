// Package metrics provides Prometheus metrics for player subprocesses.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exit results used as the "result" label.
const (
	ResultClean  = "clean"
	ResultFailed = "failed"
)

var (
	playbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "active",
		Help:      "Number of running player subprocesses",
	})

	playbackStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "started_total",
		Help:      "Total player subprocesses started",
	})

	playbackExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "exits_total",
		Help:      "Total player subprocess exits by result",
	}, []string{"result"})

	playbackForcedKills = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "forced_kills_total",
		Help:      "Player subprocesses killed after the shutdown timeout",
	})

	playbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "duration_seconds",
		Help:      "Lifetime of player subprocesses",
		Buckets:   []float64{1, 10, 30, 60, 180, 300, 600, 1800, 3600},
	})

	playbackCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "commands_total",
		Help:      "Commands sent to player subprocesses",
	}, []string{"command"})

	playbackCommandErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvnode",
		Subsystem: "playback",
		Name:      "command_errors_total",
		Help:      "Commands that could not be delivered",
	}, []string{"command"})

	// Local mirror for the status endpoint.
	stats   PlaybackStats
	statsMu sync.RWMutex
)

// PlaybackStats holds current metric values.
type PlaybackStats struct {
	Active        int `json:"active" doc:"Running player subprocesses"`
	Started       int `json:"started" doc:"Player subprocesses started"`
	CleanExits    int `json:"clean_exits" doc:"Exits with code 0"`
	FailedExits   int `json:"failed_exits" doc:"Exits with a non-zero code"`
	ForcedKills   int `json:"forced_kills" doc:"Subprocesses killed after the shutdown timeout"`
	Commands      int `json:"commands" doc:"Commands delivered"`
	CommandErrors int `json:"command_errors" doc:"Commands that failed"`
}

// RecordStart counts a started player subprocess.
func RecordStart() {
	playbackStarted.Inc()
	playbackActive.Inc()
	update(func(s *PlaybackStats) {
		s.Started++
		s.Active++
	})
}

// RecordExit counts a terminated player subprocess.
func RecordExit(exitCode int, lifetime time.Duration) {
	result := ResultClean
	if exitCode != 0 {
		result = ResultFailed
	}
	playbackActive.Dec()
	playbackExits.WithLabelValues(result).Inc()
	playbackDuration.Observe(lifetime.Seconds())
	update(func(s *PlaybackStats) {
		s.Active--
		if exitCode == 0 {
			s.CleanExits++
		} else {
			s.FailedExits++
		}
	})
}

// RecordForcedKill counts a subprocess killed by Close.
func RecordForcedKill() {
	playbackForcedKills.Inc()
	update(func(s *PlaybackStats) { s.ForcedKills++ })
}

// RecordCommand counts a command send attempt.
func RecordCommand(command string, err error) {
	if err != nil {
		playbackCommandErrors.WithLabelValues(command).Inc()
		update(func(s *PlaybackStats) { s.CommandErrors++ })
		return
	}
	playbackCommands.WithLabelValues(command).Inc()
	update(func(s *PlaybackStats) { s.Commands++ })
}

// GetPlaybackStats returns a copy of the current values.
func GetPlaybackStats() PlaybackStats {
	statsMu.RLock()
	defer statsMu.RUnlock()
	return stats
}

func update(fn func(*PlaybackStats)) {
	statsMu.Lock()
	defer statsMu.Unlock()
	fn(&stats)
}
