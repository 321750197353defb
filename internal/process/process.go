package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/mpvnode/internal/linebuf"
	"github.com/smazurov/mpvnode/internal/matcher"
	"github.com/smazurov/mpvnode/internal/oneshot"
)

// DefaultShutdownTimeout bounds the wait for a graceful exit in Close.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultQuitCommand asks the player to terminate.
const DefaultQuitCommand = "quit"

const (
	// outputGrace bounds how long output readers may lag behind the exit of
	// the subprocess. Helpers that inherited its stdout or stderr can keep the
	// pipes open; their remaining output is dropped.
	outputGrace = 200 * time.Millisecond

	// channelReleaseGrace bounds the wait for a blocked quit write after the
	// subprocess is gone.
	channelReleaseGrace = 500 * time.Millisecond
)

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// Options configures Start.
type Options struct {
	ID      string
	Path    string
	Args    []string
	Channel Channel // defaults to a stdin channel

	Logger        *slog.Logger // supervisor events
	OutputLogger  *slog.Logger // subprocess output lines (nil = Logger)
	LogParser     LogParser    // maps output lines to log levels (nil = debug)
	OutputHandler OutputHandler

	QuitCommand     string        // default DefaultQuitCommand
	ShutdownTimeout time.Duration // default DefaultShutdownTimeout

	// OnExit is called once, from the exit watcher, after the completion
	// signal has been fulfilled.
	OnExit func(exitCode int)
}

// Process supervises one running subprocess.
type Process struct {
	id              string
	cmd             *exec.Cmd
	channel         Channel
	matcher         *matcher.Matcher
	exited          *oneshot.Cell[int]
	logger          *slog.Logger
	outputLogger    *slog.Logger
	logParser       LogParser
	outputHandler   OutputHandler
	quitCommand     string
	shutdownTimeout time.Duration
	onExit          func(int)
	startedAt       time.Time

	mu     sync.Mutex // guards state and forced
	state  State
	forced bool

	closeOnce sync.Once
	closed    chan struct{}

	outputs []*os.File    // read ends of stdout and stderr
	drained chan struct{} // closed once both readers returned
}

// Start spawns the subprocess with its command channel and output readers
// attached. It returns a running Process or a *StartError; on failure no
// subprocess is left behind and the channel is cleaned up.
func Start(opts Options) (*Process, error) {
	if opts.Path == "" {
		return nil, &StartError{Path: opts.Path, Err: errors.New("empty executable path")}
	}

	p := &Process{
		id:              opts.ID,
		channel:         opts.Channel,
		matcher:         matcher.New(),
		exited:          oneshot.New[int](),
		logger:          opts.Logger,
		outputLogger:    opts.OutputLogger,
		logParser:       opts.LogParser,
		outputHandler:   opts.OutputHandler,
		quitCommand:     opts.QuitCommand,
		shutdownTimeout: opts.ShutdownTimeout,
		onExit:          opts.OnExit,
		state:           StateStarting,
		closed:          make(chan struct{}),
		drained:         make(chan struct{}),
	}
	if p.channel == nil {
		p.channel = NewStdinChannel()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.outputLogger == nil {
		p.outputLogger = p.logger
	}
	if p.quitCommand == "" {
		p.quitCommand = DefaultQuitCommand
	}
	if p.shutdownTimeout <= 0 {
		p.shutdownTimeout = DefaultShutdownTimeout
	}

	if err := p.spawn(opts.Path, opts.Args); err != nil {
		p.logger.Error("Failed to start process", "error", err, "path", opts.Path)
		if closeErr := p.channel.Close(); closeErr != nil {
			p.logger.Debug("Failed to close command channel", "error", closeErr)
		}
		if cleanupErr := p.channel.Cleanup(); cleanupErr != nil {
			p.logger.Warn("Failed to clean up command channel", "error", cleanupErr)
		}
		return nil, &StartError{Path: opts.Path, Err: err}
	}
	return p, nil
}

func (p *Process) spawn(path string, args []string) error {
	p.cmd = exec.Command(path, args...)
	setProcAttr(p.cmd)

	if err := p.channel.Attach(p.cmd); err != nil {
		return fmt.Errorf("attach command channel: %w", err)
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}
	p.cmd.Stdout = stdoutW
	p.cmd.Stderr = stderrW

	err = p.cmd.Start()
	// The subprocess holds its own copies of the write ends.
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if err != nil {
		_ = stdoutR.Close()
		_ = stderrR.Close()
		return err
	}
	p.outputs = []*os.File{stdoutR, stderrR}

	p.startedAt = time.Now()
	p.mu.Lock()
	p.state = StateRunning
	p.mu.Unlock()

	p.logger.Info("Process started", "id", p.id, "pid", p.cmd.Process.Pid, "command", path+" "+strings.Join(args, " "))

	var drains sync.WaitGroup
	drains.Add(2)
	go func() {
		defer drains.Done()
		p.streamOutput(stdoutR, "stdout")
	}()
	go func() {
		defer drains.Done()
		p.streamOutput(stderrR, "stderr")
	}()
	go func() {
		drains.Wait()
		p.matcher.Close()
		close(p.drained)
	}()

	go p.watchExit()
	return nil
}

// watchExit reaps the subprocess, lets the readers catch up for at most
// outputGrace, then fulfills the completion signal.
func (p *Process) watchExit() {
	exitCode := exitCodeFromError(p.cmd.Wait())

	select {
	case <-p.drained:
	case <-time.After(outputGrace):
		p.logger.Debug("Output still open after exit, closing readers", "id", p.id)
	}
	// Unblocks readers held open by inherited pipes.
	for _, f := range p.outputs {
		_ = f.Close()
	}
	<-p.drained

	if exitCode == 0 {
		p.logger.Debug("Process ended", "id", p.id)
	} else {
		p.logger.Warn("Process exited with non-zero exit code", "id", p.id, "exit_code", exitCode)
	}

	p.exited.Set(exitCode)
	if p.onExit != nil {
		p.onExit(exitCode)
	}
}

// ID returns the identifier given in Options.
func (p *Process) ID() string {
	return p.id
}

// PID returns the operating system process ID.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Exited returns the completion signal, fulfilled with the exit code once the
// subprocess has terminated for any reason.
func (p *Process) Exited() *oneshot.Cell[int] {
	return p.exited
}

// Done is closed once the subprocess has terminated.
func (p *Process) Done() <-chan struct{} {
	return p.exited.Done()
}

// Info returns a snapshot of the process.
func (p *Process) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()

	code, exited := p.exited.Get()
	return Info{
		ID:        p.id,
		State:     p.state,
		PID:       p.cmd.Process.Pid,
		StartedAt: p.startedAt,
		Exited:    exited,
		ExitCode:  code,
		Forced:    p.forced,
	}
}

// Forced reports whether Close had to kill the subprocess.
func (p *Process) Forced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forced
}

// Send writes a single-line command to the subprocess. It fails with ErrClosed
// once Close has begun; write failures are returned as is.
func (p *Process) Send(command string) error {
	if strings.ContainsAny(command, "\r\n") {
		return ErrInvalidCommand
	}
	if p.State() != StateRunning {
		return ErrClosed
	}
	if err := p.channel.Send(command); err != nil {
		if errors.Is(err, ErrChannelClosed) {
			return ErrClosed
		}
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}

// Expect registers pred against subsequent stdout lines.
func (p *Process) Expect(pred matcher.Predicate, timeout time.Duration) *matcher.Expectation {
	return p.matcher.Expect(pred, timeout)
}

// Close shuts the subprocess down: best-effort quit command, channel close,
// bounded wait for exit, then a forced kill if needed. It always returns nil
// after the subprocess is gone or was killed; concurrent calls wait for the
// first one.
func (p *Process) Close() error {
	p.closeOnce.Do(p.shutdown)
	<-p.closed
	return nil
}

func (p *Process) shutdown() {
	defer close(p.closed)

	p.mu.Lock()
	p.state = StateClosing
	p.mu.Unlock()

	// A player that stopped reading can block the quit write, so the channel
	// is released off the waiting path.
	released := make(chan struct{})
	go func() {
		defer close(released)
		if !p.exited.IsSet() {
			if err := p.channel.Send(p.quitCommand); err != nil {
				p.logger.Warn("Could not send quit command", "id", p.id, "error", err)
			}
		}
		if err := p.channel.Close(); err != nil {
			p.logger.Debug("Failed to close command channel", "id", p.id, "error", err)
		}
	}()

	if _, ok := p.exited.WaitTimeout(p.shutdownTimeout); !ok {
		p.logger.Warn("Graceful shutdown timeout, forcing kill; there is probably an unclosed process",
			"id", p.id, "pid", p.cmd.Process.Pid, "timeout", p.shutdownTimeout)
		p.mu.Lock()
		p.forced = true
		p.mu.Unlock()
		if err := forceKill(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Error("Failed to kill process", "id", p.id, "error", err)
		}
	}

	select {
	case <-released:
		p.cleanupChannel()
	case <-time.After(channelReleaseGrace):
		p.logger.Warn("Command channel still blocked, deferring cleanup", "id", p.id, "grace", channelReleaseGrace)
		go func() {
			<-released
			p.cleanupChannel()
		}()
	}

	p.mu.Lock()
	p.state = StateClosed
	p.mu.Unlock()
}

func (p *Process) cleanupChannel() {
	if err := p.channel.Cleanup(); err != nil {
		p.logger.Warn("Could not delete temporary command file", "id", p.id, "path", p.channel.InputFile(), "error", err)
	}
}

// streamOutput drains one output stream line by line until EOF.
// stdout lines additionally feed the matcher.
func (p *Process) streamOutput(reader io.Reader, source string) {
	err := linebuf.Drain(reader, func(line string) {
		if source == "stdout" {
			p.matcher.HandleLine(line)
		}
		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "debug", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "fatal", "error":
			p.outputLogger.Error(msg, "source", source)
		case "warning", "warn":
			p.outputLogger.Warn(msg, "source", source)
		case "info":
			p.outputLogger.Info(msg, "source", source)
		default:
			p.outputLogger.Debug(msg, "source", source)
		}
	})
	if err != nil && !errors.Is(err, os.ErrClosed) {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

// exitCodeFromError extracts the exit code from a Wait error.
// Signal terminations map to 128+signal, other errors to 1.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}
