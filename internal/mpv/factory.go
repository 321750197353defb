package mpv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/process"
	"github.com/smazurov/mpvnode/internal/storage"
)

// PluginName names the factory's storage directory.
const PluginName = "mpv"

// FactoryOptions configures a new Factory.
type FactoryOptions struct {
	Options Options
	Storage storage.Provider // directory for command files; nil uses the temp dir
	Bus     *events.Bus      // optional

	Logger       *slog.Logger // factory and supervisor events
	OutputLogger *slog.Logger // mpv output lines (nil = Logger)
}

// Factory validates the mpv binary and creates playbacks.
type Factory struct {
	storage      storage.Provider
	bus          *events.Bus
	logger       *slog.Logger
	outputLogger *slog.Logger

	mu          sync.RWMutex
	opts        Options
	executable  string
	dir         string
	lock        *flock.Flock
	initialized bool
}

// NewFactory creates a factory. Initialize must succeed before playbacks
// can be created.
func NewFactory(fo FactoryOptions) *Factory {
	logger := fo.Logger
	if logger == nil {
		logger = slog.Default()
	}
	outputLogger := fo.OutputLogger
	if outputLogger == nil {
		outputLogger = logger
	}
	return &Factory{
		storage:      fo.Storage,
		bus:          fo.Bus,
		logger:       logger,
		outputLogger: outputLogger,
		opts:         fo.Options,
	}
}

// Initialize checks that the mpv executable can be started, then prepares
// the directory holding command files.
func (f *Factory) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.opts.Validate(); err != nil {
		return err
	}

	f.logger.Info("Testing executable", "executable", f.opts.Executable)
	cmd := exec.CommandContext(ctx, f.opts.Executable, "-h", "--no-config")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			f.logger.Warn("Failed to start mpv", "executable", f.opts.Executable, "error", err)
			return newError(ErrCodeInitFailed, "failed to start "+f.opts.Executable, err)
		}
		// The binary ran; the help text exit status is irrelevant.
		f.logger.Debug("mpv help exited non-zero", "exit_code", exitErr.ExitCode())
	}
	f.executable = cmd.Path

	if f.storage != nil {
		f.logger.Debug("Retrieving plugin dir")
		dir, err := f.storage.ForPlugin(PluginName, true)
		if err != nil {
			return newError(ErrCodeInitFailed, "failed to retrieve plugin directory", err)
		}
		f.dir = dir
		f.prepareDir()
	}

	f.initialized = true
	f.logger.Info("mpv ready", "executable", f.executable, "dir", f.dir)
	return nil
}

// prepareDir locks the command file directory and removes files left by a
// crashed run. Without the lock another instance may be using them.
func (f *Factory) prepareDir() {
	if f.lock != nil {
		return
	}
	lock, err := storage.Lock(f.dir)
	if err != nil {
		f.logger.Warn("Command file directory in use, skipping cleanup", "dir", f.dir, "error", err)
		return
	}
	f.lock = lock

	removed, err := storage.RemoveMatching(f.dir, process.CommandFilePattern)
	if err != nil {
		f.logger.Warn("Could not delete stale command files", "dir", f.dir, "error", err)
	}
	if removed > 0 {
		f.logger.Info("Removed stale command files", "dir", f.dir, "count", removed)
	}
}

// CreatePlayback starts a paused playback of target. A target with a URL
// scheme is passed to mpv as is; anything else must be an existing regular
// file and is canonicalized first.
func (f *Factory) CreatePlayback(target string) (*Playback, error) {
	opts, dir, err := f.snapshot()
	if err != nil {
		return nil, err
	}

	resolved, err := resolveTarget(target)
	if err != nil {
		return nil, err
	}
	return f.start(resolved, opts, dir)
}

// CreateVideoPlayback starts a paused playback of a video ID resolved by
// mpv's youtube-dl hook.
func (f *Factory) CreateVideoPlayback(videoID string) (*Playback, error) {
	opts, dir, err := f.snapshot()
	if err != nil {
		return nil, err
	}
	if videoID == "" {
		return nil, newError(ErrCodeTargetNotFound, "empty video id", fs.ErrNotExist)
	}

	f.logger.Debug("Creating playback", "video_id", videoID)
	return f.start("ytdl://"+videoID, opts, dir)
}

// SetOptions replaces the options used for new playbacks. Running
// playbacks keep the options they were started with.
func (f *Factory) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()

	f.logger.Info("mpv options updated",
		"no_video", opts.NoVideo,
		"fullscreen", opts.Fullscreen,
		"screen", opts.Screen,
		"channel", opts.Channel)
	return nil
}

// Options returns the current options.
func (f *Factory) Options() Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts
}

// Executable returns the resolved mpv path once initialized.
func (f *Factory) Executable() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.executable
}

// Dir returns the command file directory, empty when none was configured.
func (f *Factory) Dir() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dir
}

// Close releases the command file directory. Playbacks already created are
// not affected.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initialized = false
	if f.lock == nil {
		return nil
	}
	err := f.lock.Unlock()
	f.lock = nil
	return err
}

func (f *Factory) snapshot() (Options, string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.initialized {
		return Options{}, "", newError(ErrCodeNotInitialized, "factory not initialized", nil)
	}
	return f.opts, f.dir, nil
}

// resolveTarget validates a playback target without spawning anything.
func resolveTarget(target string) (string, error) {
	if hasScheme(target) {
		return target, nil
	}
	if target == "" {
		return "", newError(ErrCodeTargetNotFound, "empty target", fs.ErrNotExist)
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", newError(ErrCodeTargetNotFound, "file not found: "+target, err)
	}
	if !info.Mode().IsRegular() {
		return "", newError(ErrCodeTargetNotFound, "not a file: "+target, fmt.Errorf("%s: %w", target, fs.ErrNotExist))
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", newError(ErrCodeTargetNotFound, "file not found: "+target, err)
	}
	if canonical, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
		abs = canonical
	}
	return abs, nil
}

// hasScheme reports whether target is a URL such as ytdl://id. Single
// letter schemes are Windows drive letters.
func hasScheme(target string) bool {
	u, err := url.Parse(target)
	return err == nil && len(u.Scheme) > 1 && strings.HasPrefix(strings.ToLower(target), u.Scheme+"://")
}
