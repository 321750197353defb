package process

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// CommandFilePattern is the os.CreateTemp pattern of command files.
const CommandFilePattern = "mpvCmd*"

// FileChannel writes commands to a uniquely named temporary file that the
// player reads as its command input.
type FileChannel struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// NewFileChannel creates the command file in dir (os.TempDir if empty).
// The file exists from this point on, so it can be handed to the player
// before the subprocess starts.
func NewFileChannel(dir string) (*FileChannel, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, CommandFilePattern)
	if err != nil {
		return nil, fmt.Errorf("create command file: %w", err)
	}

	path, err := filepath.Abs(f.Name())
	if err != nil {
		path = f.Name()
	}

	return &FileChannel{
		path: path,
		file: f,
		w:    bufio.NewWriter(f),
	}, nil
}

// InputFile implements Channel.
func (c *FileChannel) InputFile() string {
	return c.path
}

// Attach implements Channel. The file is passed by path, nothing to wire.
func (c *FileChannel) Attach(_ *exec.Cmd) error {
	return nil
}

// Send implements Channel.
func (c *FileChannel) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	if _, err := c.w.WriteString(strings.ToValidUTF8(command, "\uFFFD") + lineTerminator); err != nil {
		return err
	}
	return c.w.Flush()
}

// Close implements Channel. The file stays on disk until Cleanup.
func (c *FileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	flushErr := c.w.Flush()
	closeErr := c.file.Close()
	return errors.Join(flushErr, closeErr)
}

// Cleanup implements Channel by deleting the command file.
func (c *FileChannel) Cleanup() error {
	if err := c.Close(); err != nil {
		return err
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
