package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/mpv"
)

// Player controls a single current playback.
type Player interface {
	// Start replaces the current playback with a new one.
	Start(ctx context.Context, req Request) (Info, error)

	// Play resumes the current playback.
	Play() error

	// Pause pauses the current playback.
	Pause() error

	// Stop closes the current playback. Stopping an idle player is a no-op.
	Stop() error

	// Status returns a snapshot of the player.
	Status() Info

	// Wait blocks until the most recent playback exits and returns its exit code.
	Wait(ctx context.Context) (int, error)

	// Close stops the current playback and rejects further starts.
	Close() error
}

// current tracks the playback in the slot.
type current struct {
	pb        *mpv.Playback
	state     State
	startedAt time.Time
	stopping  bool
	done      chan struct{} // closed by the exit watcher
}

// player implements the Player interface.
type player struct {
	opts   Options
	logger *slog.Logger

	opMu sync.Mutex // serializes control operations

	mu       sync.RWMutex
	cur      *current
	latest   *current // most recently started, kept after it finishes
	lastCode *int
	lastErr  error
	closed   bool
	wg       sync.WaitGroup
}

// New creates a player.
func New(opts *Options) Player {
	if opts == nil || opts.Factory == nil {
		panic("player Options with Factory is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &player{
		opts:   *opts,
		logger: logger,
	}
}

// Start closes the current playback, if any, and starts req.
func (p *player) Start(ctx context.Context, req Request) (Info, error) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.isClosed() {
		return Info{}, ErrClosed
	}
	if req.Target == "" && req.VideoID == "" {
		return Info{}, ErrNoTarget
	}

	p.stopCurrent()

	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	var (
		pb  *mpv.Playback
		err error
	)
	if req.Target != "" {
		pb, err = p.opts.Factory.CreatePlayback(req.Target)
	} else {
		pb, err = p.opts.Factory.CreateVideoPlayback(req.VideoID)
	}
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return Info{}, fmt.Errorf("failed to create playback: %w", err)
	}

	c := &current{
		pb:        pb,
		state:     StatePaused,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	p.cur = c
	p.latest = c
	p.lastErr = nil
	p.mu.Unlock()
	p.notifyStateChange(c, StateIdle, StatePaused, nil)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.watch(c)
	}()

	if !req.Paused {
		if err := p.play(); err != nil {
			return p.Status(), err
		}
	}

	p.logger.Info("Playback started", "id", pb.ID(), "target", pb.Target(), "paused", req.Paused)
	return p.Status(), nil
}

// watch waits for the playback to exit and returns the slot to idle.
func (p *player) watch(c *current) {
	<-c.pb.Done()
	code, _ := c.pb.ExitCode()

	var exitErr error
	p.mu.Lock()
	oldState := c.state
	if code != 0 && !c.stopping {
		exitErr = fmt.Errorf("player exited with code %d", code)
		p.lastErr = exitErr
	}
	p.lastCode = &code
	if p.cur == c {
		p.cur = nil
	}
	p.mu.Unlock()

	// Releases the command channel after a natural exit.
	if err := c.pb.Close(); err != nil {
		p.logger.Warn("Failed to close finished playback", "id", c.pb.ID(), "error", err)
	}
	close(c.done)

	if exitErr != nil {
		p.logger.Error("Playback crashed", "id", c.pb.ID(), "exit_code", code)
	} else {
		p.logger.Info("Playback finished", "id", c.pb.ID(), "exit_code", code)
	}
	p.notifyStateChange(c, oldState, StateIdle, exitErr)
}

// Play resumes the current playback.
func (p *player) Play() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	return p.play()
}

func (p *player) play() error {
	return p.command(StatePlaying, (*mpv.Playback).Play)
}

// Pause pauses the current playback.
func (p *player) Pause() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	return p.command(StatePaused, (*mpv.Playback).Pause)
}

// command sends a command to the current playback and records newState.
func (p *player) command(newState State, send func(*mpv.Playback) error) error {
	p.mu.RLock()
	c := p.cur
	p.mu.RUnlock()
	if c == nil {
		return ErrIdle
	}

	if err := send(c.pb); err != nil {
		return err
	}

	p.mu.Lock()
	oldState := c.state
	if p.cur == c {
		c.state = newState
	}
	p.mu.Unlock()

	if oldState != newState {
		p.notifyStateChange(c, oldState, newState, nil)
	}
	return nil
}

// Stop closes the current playback.
func (p *player) Stop() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	p.stopCurrent()
	return nil
}

// stopCurrent closes the current playback and waits for the slot to be
// released (must hold opMu).
func (p *player) stopCurrent() {
	p.mu.Lock()
	c := p.cur
	if c == nil {
		p.mu.Unlock()
		return
	}
	oldState := c.state
	c.state = StateStopping
	c.stopping = true
	p.mu.Unlock()

	p.notifyStateChange(c, oldState, StateStopping, nil)
	p.logger.Info("Stopping playback", "id", c.pb.ID())

	if err := c.pb.Close(); err != nil {
		p.logger.Warn("Failed to close playback", "id", c.pb.ID(), "error", err)
	}
	<-c.done
}

// Status returns a snapshot of the player.
func (p *player) Status() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := Info{State: StateIdle}
	if p.lastCode != nil {
		code := *p.lastCode
		info.LastExitCode = &code
	}
	if p.lastErr != nil {
		info.LastError = p.lastErr.Error()
	}

	if c := p.cur; c != nil {
		info.PlaybackID = c.pb.ID()
		info.Target = c.pb.Target()
		info.State = c.state
		info.PID = c.pb.Info().PID
		info.StartedAt = c.startedAt
	}
	return info
}

// Wait blocks until the most recently started playback exits.
func (p *player) Wait(ctx context.Context) (int, error) {
	p.mu.RLock()
	c := p.latest
	p.mu.RUnlock()
	if c == nil {
		return 0, ErrIdle
	}

	select {
	case <-c.done:
		code, _ := c.pb.ExitCode()
		return code, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Close stops the current playback and waits for watchers to finish.
func (p *player) Close() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Closing player")
	p.stopCurrent()
	p.wg.Wait()
	return nil
}

func (p *player) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// notifyStateChange invokes the OnStateChange callback and publishes the
// transition of c on the bus.
func (p *player) notifyStateChange(c *current, oldState, newState State, err error) {
	info := p.Status()
	info.PlaybackID = c.pb.ID()
	info.Target = c.pb.Target()
	info.State = newState
	if p.opts.OnStateChange != nil {
		p.opts.OnStateChange(info, oldState, newState, err)
	}

	ev := events.PlayerStateChangedEvent{
		PlaybackID: info.PlaybackID,
		Target:     info.Target,
		OldState:   string(oldState),
		NewState:   string(newState),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.opts.Bus.Publish(ev)
}
