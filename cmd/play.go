package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/player"
	"github.com/smazurov/mpvnode/internal/storage"
	"github.com/spf13/cobra"
)

// ExitInterrupted is the exit status of a play command stopped by a signal.
const ExitInterrupted = 130

// CreatePlayCmd creates the play command.
func CreatePlayCmd() *cobra.Command {
	var flags playerFlags
	var videoIDs bool
	var storageDir string

	cmd := &cobra.Command{
		Use:   "play <target>...",
		Short: "Play files or URLs one after another",
		Long: `Plays each target in turn with a supervised mpv process and exits with the status ` +
			`of the last failed playback. SIGINT or SIGTERM closes the current playback and ` +
			`skips the remaining targets.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			flags.initLogging()
			os.Exit(runPlay(cmd, &flags, requests(args, videoIDs), storageDir))
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&videoIDs, "video-id", false, "Treat targets as video IDs played through youtube-dl")
	cmd.Flags().StringVar(&storageDir, "storage-dir", "", "Directory for command files (default: user cache dir)")

	return cmd
}

func runPlay(cmd *cobra.Command, flags *playerFlags, reqs []player.Request, storageDir string) int {
	logger := logging.GetLogger("main")

	opts, err := flags.options(cmd)
	if err != nil {
		logger.Error("Invalid mpv options", "error", err)
		return 1
	}

	store, err := storage.NewDir(storageDir)
	if err != nil {
		logger.Error("Failed to locate storage directory", "error", err)
		return 1
	}

	factory := mpv.NewFactory(mpv.FactoryOptions{
		Options:      opts,
		Storage:      store,
		Logger:       logging.GetLogger("mpv"),
		OutputLogger: logging.GetLogger("mpv-output"),
	})
	defer factory.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = factory.Initialize(initCtx)
	cancel()
	if err != nil {
		logger.Error("Failed to initialize mpv", "error", err)
		return 1
	}

	p := player.New(&player.Options{Factory: factory, Logger: logging.GetLogger("player")})
	defer p.Close()

	return playAll(ctx, p, reqs, cmd.OutOrStdout(), logger)
}

func requests(args []string, videoIDs bool) []player.Request {
	reqs := make([]player.Request, 0, len(args))
	for _, arg := range args {
		if videoIDs {
			reqs = append(reqs, player.Request{VideoID: arg})
		} else {
			reqs = append(reqs, player.Request{Target: arg})
		}
	}
	return reqs
}

// playAll plays reqs sequentially and returns the process exit status:
// 0 when every playback exited cleanly, the last non-zero exit code
// otherwise, 1 when a playback could not start and ExitInterrupted when ctx
// ended first.
func playAll(ctx context.Context, p player.Player, reqs []player.Request, out io.Writer, logger *slog.Logger) int {
	status := 0
	for i, req := range reqs {
		if ctx.Err() != nil {
			return ExitInterrupted
		}

		info, err := p.Start(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return ExitInterrupted
			}
			logger.Error("Failed to start playback", "target", req.Target, "video_id", req.VideoID, "error", err)
			status = 1
			continue
		}
		fmt.Fprintf(out, "[%d/%d] Playing %s (pid %d)\n", i+1, len(reqs), info.Target, info.PID)

		code, err := p.Wait(ctx)
		if errors.Is(err, context.Canceled) {
			logger.Info("Interrupted, closing playback", "target", info.Target)
			_ = p.Stop()
			return ExitInterrupted
		}
		if err != nil {
			logger.Error("Failed to wait for playback", "target", info.Target, "error", err)
			return 1
		}

		fmt.Fprintf(out, "[%d/%d] Finished %s (exit code %d)\n", i+1, len(reqs), info.Target, code)
		if code != 0 {
			status = code
		}
	}
	return status
}
