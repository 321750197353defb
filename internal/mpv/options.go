package mpv

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/mpvnode/internal/process"
)

// DefaultExecutable is the player binary looked up in PATH.
const DefaultExecutable = "mpv"

// MaxScreen is the highest screen index mpv accepts.
const MaxScreen = 32

// Options configures how playbacks are spawned.
type Options struct {
	Executable         string
	NoVideo            bool
	Fullscreen         bool
	Screen             int
	ConfigFile         string // extra config included with --include
	IgnoreSystemConfig bool
	Channel            process.ChannelKind
	ShutdownTimeout    time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Executable:         DefaultExecutable,
		NoVideo:            true,
		Fullscreen:         true,
		Screen:             1,
		IgnoreSystemConfig: true,
		Channel:            process.ChannelAuto,
		ShutdownTimeout:    process.DefaultShutdownTimeout,
	}
}

// Validate checks the options and returns an INVALID_OPTIONS error
// describing every problem found.
func (o Options) Validate() error {
	var errs []error
	if o.Executable == "" {
		errs = append(errs, errors.New("executable must not be empty"))
	}
	if o.Screen < 0 || o.Screen > MaxScreen {
		errs = append(errs, fmt.Errorf("screen %d out of range 0-%d", o.Screen, MaxScreen))
	}
	if o.ConfigFile != "" {
		info, err := os.Stat(o.ConfigFile)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("config file: %w", err))
		case !info.Mode().IsRegular():
			errs = append(errs, fmt.Errorf("config file %s: not a file", o.ConfigFile))
		}
	}
	if _, err := process.ParseChannelKind(string(o.Channel)); err != nil {
		errs = append(errs, err)
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %v", o.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return newError(ErrCodeInvalidOptions, "invalid mpv options", errors.Join(errs...))
	}
	return nil
}
