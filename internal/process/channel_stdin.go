package process

import (
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// stdinInputFile tells the player to read commands from its standard input.
const stdinInputFile = "/dev/stdin"

// StdinChannel writes commands to the subprocess's standard input.
type StdinChannel struct {
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

// NewStdinChannel creates a channel over the subprocess's standard input.
func NewStdinChannel() *StdinChannel {
	return &StdinChannel{}
}

// InputFile implements Channel.
func (c *StdinChannel) InputFile() string {
	return stdinInputFile
}

// Attach implements Channel.
func (c *StdinChannel) Attach(cmd *exec.Cmd) error {
	w, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.w = w
	c.mu.Unlock()
	return nil
}

// Send implements Channel. The pipe is unbuffered, so a returned write is flushed.
func (c *StdinChannel) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	if c.w == nil {
		return errors.New("stdin channel not attached")
	}
	_, err := io.WriteString(c.w, strings.ToValidUTF8(command, "\uFFFD")+lineTerminator)
	return err
}

// Close implements Channel by closing the write end of the pipe.
func (c *StdinChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.w == nil {
		return nil
	}
	return c.w.Close()
}

// Cleanup implements Channel; standard input needs no cleanup.
func (c *StdinChannel) Cleanup() error {
	return nil
}
