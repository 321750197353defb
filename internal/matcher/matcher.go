// Package matcher correlates subprocess output lines with pending expectations.
//
// A caller registers a predicate with a timeout before (or right after) sending
// a command, then waits on the returned Expectation. Every line delivered to
// HandleLine is tested against all pending predicates; each match fulfills its
// expectation and removes it from the table. One line may satisfy several
// expectations. Expired expectations remove themselves.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/smazurov/mpvnode/internal/oneshot"
)

var (
	// ErrTimeout is the result of an expectation that was not matched in time.
	ErrTimeout = errors.New("expectation timed out")
	// ErrClosed is the result of an expectation pending when the matcher closed.
	ErrClosed = errors.New("matcher closed")
	// ErrCancelled is the result of an expectation removed with Cancel.
	ErrCancelled = errors.New("expectation cancelled")
)

// Predicate tests a line. On a match it returns the captured groups; by
// convention groups[0] is the matched text.
type Predicate func(line string) (groups []string, ok bool)

// Pattern compiles expr into a predicate that must match the whole line.
func Pattern(expr string) (Predicate, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Regexp(re), nil
}

// MustPattern is like Pattern but panics on an invalid expression.
func MustPattern(expr string) Predicate {
	p, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Regexp adapts re as a predicate. Unlike Pattern, it is not anchored.
func Regexp(re *regexp.Regexp) Predicate {
	return func(line string) ([]string, bool) {
		groups := re.FindStringSubmatch(line)
		return groups, groups != nil
	}
}

// Match is a fulfilled expectation.
type Match struct {
	Line   string
	Groups []string
}

type result struct {
	match Match
	err   error
}

type entry struct {
	id     uint64
	pred   Predicate
	result *oneshot.Cell[result]
	timer  *time.Timer
}

// Matcher is the table of pending expectations. The zero value is not usable;
// use New.
type Matcher struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	nextID  uint64
	closed  bool
}

// New creates an empty matcher.
func New() *Matcher {
	return &Matcher{entries: make(map[uint64]*entry)}
}

// Expect registers pred and returns its pending result. The expectation fails
// with ErrTimeout once timeout elapses without a matching line, and is removed
// from the table at that moment whether or not anyone is waiting.
func (m *Matcher) Expect(pred Predicate, timeout time.Duration) *Expectation {
	e := &entry{pred: pred, result: oneshot.New[result]()}
	exp := &Expectation{m: m, e: e}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		e.result.Set(result{err: ErrClosed})
		return exp
	}

	m.nextID++
	e.id = m.nextID
	m.entries[e.id] = e
	e.timer = time.AfterFunc(timeout, func() {
		m.remove(e, ErrTimeout)
	})
	return exp
}

// HandleLine tests line against every pending predicate and fulfills all matches.
func (m *Matcher) HandleLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		groups, ok := e.pred(line)
		if !ok {
			continue
		}
		delete(m.entries, id)
		e.timer.Stop()
		e.result.Set(result{match: Match{Line: line, Groups: groups}})
	}
}

// Pending returns the number of unfulfilled expectations.
func (m *Matcher) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close fails all pending expectations with ErrClosed. Expectations registered
// afterwards fail immediately.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, e := range m.entries {
		delete(m.entries, id)
		e.timer.Stop()
		e.result.Set(result{err: ErrClosed})
	}
}

// remove deletes e if it is still pending and resolves it with err.
// It is safe to call any number of times.
func (m *Matcher) remove(e *entry, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.id]; !ok {
		return
	}
	delete(m.entries, e.id)
	if e.timer != nil {
		e.timer.Stop()
	}
	e.result.Set(result{err: err})
}

// Expectation is the pending result of Matcher.Expect.
type Expectation struct {
	m *Matcher
	e *entry
}

// Done is closed once the expectation is resolved.
func (x *Expectation) Done() <-chan struct{} {
	return x.e.result.Done()
}

// Wait blocks until the expectation is matched, times out, or ctx ends.
// If ctx ends first the expectation is cancelled.
func (x *Expectation) Wait(ctx context.Context) (Match, error) {
	r, err := x.e.result.Wait(ctx)
	if err != nil {
		x.Cancel()
		return Match{}, err
	}
	return r.match, r.err
}

// Cancel removes the expectation from the table. Further calls are no-ops.
func (x *Expectation) Cancel() {
	x.m.remove(x.e, ErrCancelled)
}
