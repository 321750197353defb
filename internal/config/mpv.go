package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/process"
)

// mpvSection mirrors the [mpv] table. Unset keys keep their defaults.
type mpvSection struct {
	Executable         *string `toml:"executable"`
	NoVideo            *bool   `toml:"no_video"`
	Fullscreen         *bool   `toml:"fullscreen"`
	Screen             *int    `toml:"screen"`
	ConfigFile         *string `toml:"config_file"`
	IgnoreSystemConfig *bool   `toml:"ignore_system_config"`
	Channel            *string `toml:"channel"`
	ShutdownTimeout    *string `toml:"shutdown_timeout"`
}

// LoadMPVOptions reads the [mpv] section of the TOML file at path on top of
// mpv.DefaultOptions. An empty path or a missing file yields the defaults.
// The result is validated.
func LoadMPVOptions(path string) (mpv.Options, error) {
	opts := mpv.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("failed to read config: %w", err)
	}

	var raw struct {
		MPV mpvSection `toml:"mpv"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return opts, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := raw.MPV.apply(&opts); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

func (s mpvSection) apply(opts *mpv.Options) error {
	if s.Executable != nil {
		opts.Executable = *s.Executable
	}
	if s.NoVideo != nil {
		opts.NoVideo = *s.NoVideo
	}
	if s.Fullscreen != nil {
		opts.Fullscreen = *s.Fullscreen
	}
	if s.Screen != nil {
		opts.Screen = *s.Screen
	}
	if s.ConfigFile != nil {
		opts.ConfigFile = *s.ConfigFile
	}
	if s.IgnoreSystemConfig != nil {
		opts.IgnoreSystemConfig = *s.IgnoreSystemConfig
	}
	if s.Channel != nil {
		kind, err := process.ParseChannelKind(*s.Channel)
		if err != nil {
			return fmt.Errorf("mpv.channel: %w", err)
		}
		opts.Channel = kind
	}
	if s.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*s.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("mpv.shutdown_timeout: %w", err)
		}
		opts.ShutdownTimeout = d
	}
	return nil
}
