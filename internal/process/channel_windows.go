//go:build windows

package process

// There is no /dev/stdin on Windows, so mpv reads commands from a file.
const platformChannel = ChannelFile

const lineTerminator = "\r\n"
