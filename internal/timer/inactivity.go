// Package timer implements restartable single-shot inactivity countdown.
//
// Each Arm starts new generation. Expiry of live generation delivers exactly one Signal on C().
// Superseded generations never deliver; Live(gen) lets consumer drop a signal
// that raced with re-arm.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultTimeout = 30 * time.Second

type Signal struct {
	Gen uint64
	At  time.Time
}

type Inactivity struct {
	clock   clockwork.Clock
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	armed  bool
	closed bool
	t      clockwork.Timer
	ch     chan Signal
}

// New with nil clock uses real time.
func New(clock clockwork.Clock, timeout time.Duration) *Inactivity {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Inactivity{
		clock:   clock,
		timeout: timeout,
		ch:      make(chan Signal, 1),
	}
}

func (self *Inactivity) C() <-chan Signal       { return self.ch }
func (self *Inactivity) Timeout() time.Duration { return self.timeout }

// Arm restarts countdown and returns new generation.
// Undelivered signal of previous generation is discarded.
func (self *Inactivity) Arm() uint64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return self.gen
	}
	self.stopLocked()
	self.gen++
	self.armed = true
	gen := self.gen
	self.t = self.clock.AfterFunc(self.timeout, func() { self.fire(gen) })
	return gen
}

// Disarm cancels countdown without signal.
func (self *Inactivity) Disarm() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.stopLocked()
	self.gen++
}

func (self *Inactivity) Armed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.armed
}

// Live reports whether gen is the latest armed generation.
func (self *Inactivity) Live(gen uint64) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return !self.closed && gen == self.gen
}

// Close stops countdown for good. Arm after Close is no-op.
func (self *Inactivity) Close() {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return
	}
	self.stopLocked()
	self.closed = true
}

func (self *Inactivity) stopLocked() {
	if self.t != nil {
		self.t.Stop()
		self.t = nil
	}
	self.armed = false
	select {
	case <-self.ch:
	default:
	}
}

func (self *Inactivity) fire(gen uint64) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed || !self.armed || gen != self.gen {
		return
	}
	self.armed = false
	self.t = nil
	// buffer is empty: every Arm/Disarm drains it and only one fire per generation gets here
	select {
	case self.ch <- Signal{Gen: gen, At: self.clock.Now()}:
	default:
		panic("code error inactivity signal buffer full")
	}
}
