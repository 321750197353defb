package process

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned for commands issued while closing or closed.
	ErrClosed = errors.New("process closed")
	// ErrChannelClosed is returned by Channel.Send after Channel.Close.
	ErrChannelClosed = errors.New("command channel closed")
	// ErrInvalidCommand is returned for commands that span several lines.
	ErrInvalidCommand = errors.New("command must be a single line")
)

// StartError reports that the subprocess could not be spawned.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}
