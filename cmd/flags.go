package cmd

import (
	"fmt"
	"time"

	"github.com/smazurov/mpvnode/internal/config"
	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/process"
	"github.com/spf13/cobra"
)

// playerFlags are the flags shared by commands that drive mpv directly.
type playerFlags struct {
	configFile string
	logLevel   string
	logJSON    bool

	executable      string
	noVideo         bool
	fullscreen      bool
	screen          int
	mpvConfig       string
	channel         string
	shutdownTimeout string
}

func (f *playerFlags) register(cmd *cobra.Command) {
	defaults := mpv.DefaultOptions()

	cmd.Flags().StringVarP(&f.configFile, "config", "c", "config.toml", "Configuration file providing the [mpv] section")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.logJSON, "log-json", false, "Use JSON log format")

	cmd.Flags().StringVar(&f.executable, "executable", defaults.Executable, "mpv executable")
	cmd.Flags().BoolVar(&f.noVideo, "no-video", defaults.NoVideo, "Disable video output")
	cmd.Flags().BoolVar(&f.fullscreen, "fullscreen", defaults.Fullscreen, "Play fullscreen")
	cmd.Flags().IntVar(&f.screen, "screen", defaults.Screen, "Screen index")
	cmd.Flags().StringVar(&f.mpvConfig, "mpv-config", "", "Extra mpv config included with --include")
	cmd.Flags().StringVar(&f.channel, "channel", string(defaults.Channel), "Command channel (auto, stdin, file)")
	cmd.Flags().StringVar(&f.shutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout.String(), "Grace period before a playback is killed")
}

func (f *playerFlags) initLogging() {
	loggingConfig := config.LoadLoggingConfig(f.configFile)
	loggingConfig.Level = f.logLevel
	loggingConfig.Format = "text"
	if f.logJSON {
		loggingConfig.Format = "json"
	}
	logging.Initialize(loggingConfig)
}

// options loads the [mpv] section of the config file and applies the
// flags set on the command line on top of it.
func (f *playerFlags) options(cmd *cobra.Command) (mpv.Options, error) {
	opts, err := config.LoadMPVOptions(f.configFile)
	if err != nil && !mpv.IsCode(err, mpv.ErrCodeInvalidOptions) {
		return opts, err
	}

	flags := cmd.Flags()
	if flags.Changed("executable") {
		opts.Executable = f.executable
	}
	if flags.Changed("no-video") {
		opts.NoVideo = f.noVideo
	}
	if flags.Changed("fullscreen") {
		opts.Fullscreen = f.fullscreen
	}
	if flags.Changed("screen") {
		opts.Screen = f.screen
	}
	if flags.Changed("mpv-config") {
		opts.ConfigFile = f.mpvConfig
	}
	if flags.Changed("channel") {
		kind, parseErr := process.ParseChannelKind(f.channel)
		if parseErr != nil {
			return opts, fmt.Errorf("--channel: %w", parseErr)
		}
		opts.Channel = kind
	}
	if flags.Changed("shutdown-timeout") {
		timeout, parseErr := time.ParseDuration(f.shutdownTimeout)
		if parseErr != nil {
			return opts, fmt.Errorf("--shutdown-timeout: %w", parseErr)
		}
		opts.ShutdownTimeout = timeout
	}

	return opts, opts.Validate()
}
