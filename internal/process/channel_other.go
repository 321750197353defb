//go:build !windows

package process

// The file backend does not work with mpv on Unix-like systems; commands go
// through standard input instead.
const platformChannel = ChannelStdin

const lineTerminator = "\n"
