package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/matcher"
	"github.com/smazurov/mpvnode/internal/metrics"
	"github.com/smazurov/mpvnode/internal/process"
)

// mpv input commands.
const (
	CommandPlay  = "set pause no"
	CommandPause = "set pause yes"
	CommandQuit  = "quit"
)

// Playback is one mpv subprocess playing one target. It starts paused.
type Playback struct {
	id        string
	target    string
	opts      Options
	proc      *process.Process
	bus       *events.Bus
	logger    *slog.Logger
	startedAt time.Time

	ready          chan struct{} // closed once start bookkeeping is done
	closeRequested atomic.Bool
	closeOnce      sync.Once
}

func (f *Factory) start(target string, opts Options, dir string) (*Playback, error) {
	pb := &Playback{
		id:     uuid.NewString(),
		target: target,
		opts:   opts,
		bus:    f.bus,
		logger: f.logger,
		ready:  make(chan struct{}),
	}

	ch, err := process.NewChannel(opts.Channel, dir)
	if err != nil {
		return nil, fmt.Errorf("create command channel: %w", err)
	}

	pb.startedAt = time.Now()
	proc, err := process.Start(process.Options{
		ID:              pb.id,
		Path:            opts.Executable,
		Args:            BuildArgs(opts, ch.InputFile(), target),
		Channel:         ch,
		Logger:          f.logger,
		OutputLogger:    f.outputLogger.With("playback_id", pb.id),
		LogParser:       ParseLogLevel,
		QuitCommand:     CommandQuit,
		ShutdownTimeout: opts.ShutdownTimeout,
		OnExit:          pb.onExit,
	})
	if err != nil {
		return nil, err
	}
	pb.proc = proc

	metrics.RecordStart()
	pb.bus.Publish(events.PlaybackStartedEvent{
		PlaybackID: pb.id,
		Target:     target,
		PID:        proc.PID(),
		Timestamp:  pb.startedAt.Format(time.RFC3339),
	})
	close(pb.ready)

	f.logger.Info("Playback created", "id", pb.id, "target", target)
	return pb, nil
}

// onExit runs on the exit watcher once the subprocess has terminated.
func (pb *Playback) onExit(exitCode int) {
	<-pb.ready

	metrics.RecordExit(exitCode, time.Since(pb.startedAt))
	pb.bus.Publish(events.PlaybackFinishedEvent{
		PlaybackID: pb.id,
		Target:     pb.target,
		ExitCode:   exitCode,
		Requested:  pb.closeRequested.Load(),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// ID returns the unique playback identifier.
func (pb *Playback) ID() string { return pb.id }

// Target returns the resolved path or URL being played.
func (pb *Playback) Target() string { return pb.target }

// Options returns the options the playback was started with.
func (pb *Playback) Options() Options { return pb.opts }

// StartedAt returns when the subprocess was spawned.
func (pb *Playback) StartedAt() time.Time { return pb.startedAt }

// Info returns a snapshot of the underlying process.
func (pb *Playback) Info() process.Info { return pb.proc.Info() }

// Play resumes playback.
func (pb *Playback) Play() error {
	return pb.send(CommandPlay)
}

// Pause pauses playback.
func (pb *Playback) Pause() error {
	return pb.send(CommandPause)
}

func (pb *Playback) send(command string) error {
	err := pb.proc.Send(command)
	metrics.RecordCommand(command, err)

	ev := events.PlaybackCommandEvent{
		PlaybackID: pb.id,
		Command:    command,
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
		pb.logger.Warn("Command failed", "id", pb.id, "command", command, "error", err)
	} else {
		pb.logger.Debug("Command sent", "id", pb.id, "command", command)
	}
	pb.bus.Publish(ev)
	return err
}

// Expect waits for a whole stdout line matching pattern.
func (pb *Playback) Expect(pattern string, timeout time.Duration) (*matcher.Expectation, error) {
	pred, err := matcher.Pattern(pattern)
	if err != nil {
		return nil, err
	}
	return pb.proc.Expect(pred, timeout), nil
}

// Done is closed once the subprocess has exited.
func (pb *Playback) Done() <-chan struct{} {
	return pb.proc.Done()
}

// ExitCode returns the exit code once the subprocess has exited.
func (pb *Playback) ExitCode() (int, bool) {
	return pb.proc.Exited().Get()
}

// Wait blocks until the subprocess exits or ctx ends.
func (pb *Playback) Wait(ctx context.Context) (int, error) {
	return pb.proc.Exited().Wait(ctx)
}

// Close quits mpv, killing it if it does not exit within the shutdown
// timeout. It is safe to call more than once.
func (pb *Playback) Close() error {
	pb.closeRequested.Store(true)
	err := pb.proc.Close()

	pb.closeOnce.Do(func() {
		forced := pb.proc.Forced()
		if forced {
			metrics.RecordForcedKill()
		}
		pb.bus.Publish(events.PlaybackClosedEvent{
			PlaybackID: pb.id,
			Forced:     forced,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
		pb.logger.Info("Playback closed", "id", pb.id, "forced", forced)
	})
	return err
}
