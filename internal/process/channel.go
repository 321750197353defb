package process

import (
	"fmt"
	"os/exec"
	"strings"
)

// Channel is a one-way, line-oriented command transport into the subprocess.
// Each Send writes one command followed by a line terminator and flushes it
// before returning. Sends are serialized.
type Channel interface {
	// InputFile is the path the player reads commands from (--input-file).
	InputFile() string
	// Attach wires the channel into cmd. It must be called before cmd.Start.
	Attach(cmd *exec.Cmd) error
	// Send writes command and a line terminator, flushed.
	Send(command string) error
	// Close stops accepting commands and closes the write side.
	Close() error
	// Cleanup removes backing resources once the subprocess is gone.
	Cleanup() error
}

// ChannelKind selects a Channel backend.
type ChannelKind string

// Channel backends.
const (
	ChannelAuto  ChannelKind = "auto"  // platform default
	ChannelStdin ChannelKind = "stdin" // subprocess standard input
	ChannelFile  ChannelKind = "file"  // temporary command file
)

// ParseChannelKind validates a backend name. The empty string means auto.
func ParseChannelKind(s string) (ChannelKind, error) {
	switch kind := ChannelKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "", ChannelAuto:
		return ChannelAuto, nil
	case ChannelStdin, ChannelFile:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown channel %q (want auto, stdin or file)", s)
	}
}

// Resolve returns the concrete backend for kind on this platform.
func (k ChannelKind) Resolve() ChannelKind {
	if k == "" || k == ChannelAuto {
		return platformChannel
	}
	return k
}

// NewChannel creates a channel of the given kind. dir is where the file
// backend places its command file.
func NewChannel(kind ChannelKind, dir string) (Channel, error) {
	switch kind.Resolve() {
	case ChannelStdin:
		return NewStdinChannel(), nil
	case ChannelFile:
		return NewFileChannel(dir)
	default:
		return nil, fmt.Errorf("unknown channel %q", kind)
	}
}
