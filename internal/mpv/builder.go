package mpv

import (
	"path/filepath"
	"strconv"
)

// BuildArgs assembles the mpv argument list for one playback. inputFile is
// where mpv reads commands from; target is a local path or URL.
func BuildArgs(opts Options, inputFile, target string) []string {
	screen := strconv.Itoa(opts.Screen)

	args := []string{
		"--input-file=" + inputFile,
		"--no-input-terminal",
		"--no-input-default-bindings",
		"--no-osc",
		"--config=" + yesNo(!opts.IgnoreSystemConfig),
		"--really-quiet",
		"--video=" + videoMode(opts.NoVideo),
		"--fullscreen=" + yesNo(opts.Fullscreen),
		"--fs-screen=" + screen,
		"--screen=" + screen,
	}

	if opts.ConfigFile != "" {
		include := opts.ConfigFile
		if abs, err := filepath.Abs(include); err == nil {
			include = abs
		}
		args = append(args, "--include="+include)
	}

	return append(args, "--pause", target)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func videoMode(noVideo bool) string {
	if noVideo {
		return "no"
	}
	return "auto"
}
