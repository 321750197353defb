package process

import "time"

// State represents the lifecycle state of a supervised process.
type State string

// Process states. There is no paused state: pause and resume are commands
// relayed to the player while running.
const (
	StateStarting State = "starting" // Being spawned
	StateRunning  State = "running"  // Accepting commands
	StateClosing  State = "closing"  // Close in progress
	StateClosed   State = "closed"   // Terminated and cleaned up
)

// Info is a snapshot of a supervised process.
type Info struct {
	ID        string
	State     State
	PID       int
	StartedAt time.Time
	Exited    bool
	ExitCode  int
	Forced    bool // killed after the shutdown timeout
}
