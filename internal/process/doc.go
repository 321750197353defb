// Package process supervises a single long-lived player subprocess.
//
// A Process owns exactly one subprocess and its command Channel:
//   - Commands are single text lines written through the Channel, either a
//     temporary command file the player reads (ChannelFile) or the player's
//     standard input (ChannelStdin). ChannelAuto picks the platform default.
//   - stdout and stderr are drained by background goroutines into line
//     buffers; stdout lines also feed a matcher so callers can await an
//     acknowledgment line with Expect.
//   - Process exit fulfills a one-shot completion signal exactly once.
//   - Close sends the quit command, closes the channel and waits up to the
//     shutdown timeout before force killing the subprocess.
//
// Example:
//
//	ch, _ := process.NewChannel(process.ChannelAuto, dir)
//	p, err := process.Start(process.Options{
//	    ID:      "track-1",
//	    Path:    "mpv",
//	    Args:    []string{"--input-file=" + ch.InputFile(), "song.flac"},
//	    Channel: ch,
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	p.Send("set pause no")
package process
