package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/storage"
	"github.com/spf13/cobra"
)

// ProbeResult describes an initialized playback factory.
type ProbeResult struct {
	Executable      string `json:"executable"`
	Dir             string `json:"dir,omitempty"`
	Channel         string `json:"channel"`
	NoVideo         bool   `json:"no_video"`
	Fullscreen      bool   `json:"fullscreen"`
	Screen          int    `json:"screen"`
	ConfigFile      string `json:"config_file,omitempty"`
	ShutdownTimeout string `json:"shutdown_timeout"`
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var flags playerFlags
	var storageDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that mpv can be started with the configured options",
		Long: `Resolves the mpv executable, runs it once with -h and prepares the command file ` +
			`directory, then prints the options new playbacks would use.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			flags.initLogging()
			logger := logging.GetLogger("main")

			opts, err := flags.options(cmd)
			if err != nil {
				logger.Error("Invalid mpv options", "error", err)
				os.Exit(1)
			}
			store, err := storage.NewDir(storageDir)
			if err != nil {
				logger.Error("Failed to locate storage directory", "error", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			result, err := probe(ctx, mpv.NewFactory(mpv.FactoryOptions{
				Options: opts,
				Storage: store,
				Logger:  logging.GetLogger("mpv"),
			}))
			if err != nil {
				logger.Error("Probe failed", "error", err)
				os.Exit(1)
			}

			if err := printProbe(cmd.OutOrStdout(), result, asJSON); err != nil {
				logger.Error("Failed to write probe result", "error", err)
				os.Exit(1)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&storageDir, "storage-dir", "", "Directory for command files (default: user cache dir)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func probe(ctx context.Context, factory *mpv.Factory) (ProbeResult, error) {
	if err := factory.Initialize(ctx); err != nil {
		return ProbeResult{}, err
	}
	defer factory.Close()

	opts := factory.Options()
	return ProbeResult{
		Executable:      factory.Executable(),
		Dir:             factory.Dir(),
		Channel:         string(opts.Channel.Resolve()),
		NoVideo:         opts.NoVideo,
		Fullscreen:      opts.Fullscreen,
		Screen:          opts.Screen,
		ConfigFile:      opts.ConfigFile,
		ShutdownTimeout: opts.ShutdownTimeout.String(),
	}, nil
}

func printProbe(w io.Writer, result ProbeResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	_, err := fmt.Fprintf(w, "Executable:       %s\n"+
		"Command dir:      %s\n"+
		"Channel:          %s\n"+
		"No video:         %t\n"+
		"Fullscreen:       %t\n"+
		"Screen:           %d\n"+
		"Shutdown timeout: %s\n",
		result.Executable, result.Dir, result.Channel, result.NoVideo,
		result.Fullscreen, result.Screen, result.ShutdownTimeout)
	if err == nil && result.ConfigFile != "" {
		_, err = fmt.Fprintf(w, "Config file:      %s\n", result.ConfigFile)
	}
	return err
}
