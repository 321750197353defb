package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/mpvnode/cmd"
	"github.com/smazurov/mpvnode/internal/api"
	"github.com/smazurov/mpvnode/internal/config"
	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/metrics"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/player"
	"github.com/smazurov/mpvnode/internal/process"
	"github.com/smazurov/mpvnode/internal/storage"
	"github.com/smazurov/mpvnode/internal/version"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config  string `help:"Path to configuration file" short:"c" default:"config.toml"`
	EnvFile string `help:"Path to a dotenv file seeding MPVNODE_ variables" default:".env"`

	// Server settings
	Port        string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin  string `help:"Access-Control-Allow-Origin value" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`
	WatchConfig bool   `help:"Apply [mpv] and [logging] changes without a restart" default:"true" toml:"server.watch_config" env:"SERVER_WATCH_CONFIG"`

	// Auth settings, empty disables authentication
	AuthUsername string `help:"Basic auth username" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Storage settings
	StorageDir string `help:"Directory for command files (default: user cache dir)" toml:"storage.dir" env:"STORAGE_DIR"`

	// Player settings
	MpvExecutable         string `help:"mpv executable" default:"mpv" toml:"mpv.executable" env:"MPV_EXECUTABLE"`
	MpvNoVideo            bool   `help:"Disable video output" default:"true" toml:"mpv.no_video" env:"MPV_NO_VIDEO"`
	MpvFullscreen         bool   `help:"Play fullscreen" default:"true" toml:"mpv.fullscreen" env:"MPV_FULLSCREEN"`
	MpvScreen             int    `help:"Screen index" default:"1" toml:"mpv.screen" env:"MPV_SCREEN"`
	MpvConfigFile         string `help:"Extra mpv config included with --include" toml:"mpv.config_file" env:"MPV_CONFIG_FILE"`
	MpvIgnoreSystemConfig bool   `help:"Skip the system mpv configuration" default:"true" toml:"mpv.ignore_system_config" env:"MPV_IGNORE_SYSTEM_CONFIG"`
	MpvChannel            string `help:"Command channel (auto, stdin, file)" default:"auto" toml:"mpv.channel" env:"MPV_CHANNEL"`
	MpvShutdownTimeout    string `help:"Grace period before a playback is killed" default:"5s" toml:"mpv.shutdown_timeout" env:"MPV_SHUTDOWN_TIMEOUT"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBufferSize int    `help:"Log entries kept for /api/logs" default:"1000" toml:"logging.buffer_size" env:"LOGGING_BUFFER_SIZE"`
	LoggingProcess    string `help:"Process supervisor logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingPlayer     string `help:"Player logging level" default:"info" toml:"logging.player" env:"LOGGING_PLAYER"`
	LoggingMpv        string `help:"Playback factory logging level" default:"info" toml:"logging.mpv" env:"LOGGING_MPV"`
	LoggingMpvOutput  string `help:"mpv output logging level" default:"info" toml:"logging.mpv-output" env:"LOGGING_MPV_OUTPUT"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:      o.LoggingLevel,
		Format:     o.LoggingFormat,
		BufferSize: o.LoggingBufferSize,
		Modules: map[string]string{
			"process":    o.LoggingProcess,
			"player":     o.LoggingPlayer,
			"mpv":        o.LoggingMpv,
			"mpv-output": o.LoggingMpvOutput,
			"api":        o.LoggingAPI,
			"http":       o.LoggingHTTP,
		},
	}
}

func (o *Options) mpvOptions() (mpv.Options, error) {
	opts := mpv.Options{
		Executable:         o.MpvExecutable,
		NoVideo:            o.MpvNoVideo,
		Fullscreen:         o.MpvFullscreen,
		Screen:             o.MpvScreen,
		ConfigFile:         o.MpvConfigFile,
		IgnoreSystemConfig: o.MpvIgnoreSystemConfig,
	}

	channel, err := process.ParseChannelKind(o.MpvChannel)
	if err != nil {
		return opts, err
	}
	opts.Channel = channel

	timeout, err := time.ParseDuration(o.MpvShutdownTimeout)
	if err != nil {
		return opts, err
	}
	opts.ShutdownTimeout = timeout

	return opts, opts.Validate()
}

func main() {
	var root *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, root); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		// Subcommands run this callback too, so option errors only stop the server.
		mpvOpts, optsErr := opts.mpvOptions()

		// Create event bus for in-process event handling
		eventBus := events.New()
		api.PublishLogs(eventBus)

		store, err := storage.NewDir(opts.StorageDir)
		if err != nil {
			logger.Error("Failed to locate storage directory", "error", err)
			os.Exit(1)
		}

		factory := mpv.NewFactory(mpv.FactoryOptions{
			Options:      mpvOpts,
			Storage:      store,
			Bus:          eventBus,
			Logger:       logging.GetLogger("mpv"),
			OutputLogger: logging.GetLogger("mpv-output"),
		})

		mpvPlayer := player.New(&player.Options{
			Factory: factory,
			Bus:     eventBus,
			Logger:  logging.GetLogger("player"),
		})

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			CORSOrigin:        opts.CORSOrigin,
			Player:            mpvPlayer,
			Factory:           factory,
			EventBus:          eventBus,
			PrometheusHandler: metrics.HTTPHandler(),
		})

		// Only the file is re-read on change; env and flag overrides apply at startup.
		configLogger := logging.GetLogger("config")
		watcher := config.NewConfigWatcher(opts.Config, config.LoadMPVOptions, configLogger)
		watcher.OnReload(func(newOpts mpv.Options) {
			if setErr := factory.SetOptions(newOpts); setErr != nil {
				configLogger.Warn("Rejected mpv options from config", "error", setErr)
			}
			logging.SetLevels(config.LoadLoggingConfig(opts.Config))
		})

		hooks.OnStart(func() {
			if optsErr != nil {
				logger.Error("Invalid mpv options", "error", optsErr)
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			initErr := factory.Initialize(ctx)
			cancel()
			if initErr != nil {
				logger.Error("Failed to initialize mpv", "error", initErr)
				os.Exit(1)
			}

			if opts.WatchConfig {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
				}
			}

			if sent, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Warn("Failed to notify systemd", "error", notifyErr)
			} else if sent {
				logger.Debug("Notified systemd of readiness")
			}

			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Close the playback after HTTP stops accepting new requests
			if closeErr := mpvPlayer.Close(); closeErr != nil {
				logger.Error("Error closing player", "error", closeErr)
			}
			if closeErr := factory.Close(); closeErr != nil {
				logger.Warn("Error releasing command file directory", "error", closeErr)
			}
		})
	})

	root = cli.Root()
	root.Use = "mpvnode"
	root.Short = "Supervise an mpv player behind an HTTP API"
	root.Version = version.String()

	root.AddCommand(cmd.CreatePlayCmd())
	root.AddCommand(cmd.CreateProbeCmd())
	root.AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
