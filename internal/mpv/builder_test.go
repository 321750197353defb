package mpv

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	opts := Options{
		Executable:         "mpv",
		NoVideo:            true,
		Fullscreen:         false,
		Screen:             0,
		IgnoreSystemConfig: true,
	}

	args := BuildArgs(opts, "/dev/stdin", "ytdl://abc123")

	want := []string{
		"--input-file=/dev/stdin",
		"--no-input-terminal",
		"--no-input-default-bindings",
		"--no-osc",
		"--config=no",
		"--really-quiet",
		"--video=no",
		"--fullscreen=no",
		"--fs-screen=0",
		"--screen=0",
		"--pause",
		"ytdl://abc123",
	}
	if !slices.Equal(args, want) {
		t.Errorf("BuildArgs() =\n%q\nwant\n%q", args, want)
	}
}

func TestBuildArgsVariants(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		contains []string
		absent   []string
	}{
		{
			name:     "defaults",
			opts:     DefaultOptions(),
			contains: []string{"--config=no", "--video=no", "--fullscreen=yes", "--fs-screen=1", "--screen=1"},
			absent:   []string{"--config=yes", "--video=auto"},
		},
		{
			name:     "video with system config",
			opts:     Options{NoVideo: false, Fullscreen: true, Screen: 32, IgnoreSystemConfig: false},
			contains: []string{"--config=yes", "--video=auto", "--fs-screen=32", "--screen=32"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildArgs(tt.opts, "/tmp/mpvCmd1", "/music/a.flac")
			for _, want := range tt.contains {
				if !slices.Contains(args, want) {
					t.Errorf("missing %q in %q", want, args)
				}
			}
			for _, unwanted := range tt.absent {
				if slices.Contains(args, unwanted) {
					t.Errorf("unexpected %q in %q", unwanted, args)
				}
			}
			for _, arg := range args {
				if strings.HasPrefix(arg, "--include=") {
					t.Errorf("unexpected include without config file: %q", arg)
				}
			}
			if args[0] != "--input-file=/tmp/mpvCmd1" {
				t.Errorf("first arg = %q", args[0])
			}
			if args[len(args)-1] != "/music/a.flac" || args[len(args)-2] != "--pause" {
				t.Errorf("args must end with --pause and the target: %q", args)
			}
		})
	}
}

func TestBuildArgsInclude(t *testing.T) {
	opts := DefaultOptions()
	opts.ConfigFile = filepath.Join("conf", "mpv.conf")

	args := BuildArgs(opts, "/dev/stdin", "/music/a.flac")

	abs, err := filepath.Abs(opts.ConfigFile)
	if err != nil {
		t.Fatal(err)
	}
	include := "--include=" + abs
	idx := slices.Index(args, include)
	if idx == -1 {
		t.Fatalf("missing %q in %q", include, args)
	}
	if idx != len(args)-3 {
		t.Errorf("include at %d, want right before --pause: %q", idx, args)
	}
}
