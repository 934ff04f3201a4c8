package executor

import "sync"

// Interrupt is a single-use cancellation signal scoped to one turn. The turn
// observes it between steps; requests made after the turn ended are ignored.
type Interrupt struct {
	mu        sync.Mutex
	requested bool
	finished  bool
	done      chan struct{}
}

// NewInterrupt creates a fresh signal for the next turn.
func NewInterrupt() *Interrupt {
	return &Interrupt{done: make(chan struct{})}
}

// Request asks the turn to stop. It reports whether the request was
// accepted, which is false once the turn ended or a request is pending.
func (i *Interrupt) Request() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.finished || i.requested {
		return false
	}
	i.requested = true
	close(i.done)
	return true
}

// Requested reports whether cancellation was requested while the turn ran.
func (i *Interrupt) Requested() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.requested
}

// Done is closed when cancellation is requested.
func (i *Interrupt) Done() <-chan struct{} {
	return i.done
}

// Finished reports whether the owning turn has ended.
func (i *Interrupt) Finished() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.finished
}

func (i *Interrupt) finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.finished = true
}
