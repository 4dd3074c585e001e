// Package weblog provides the logging interface injected through the webhook
// call chain plus a bounded in-memory ring of recent entries for diagnostics.
package weblog

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultCapacity bounds the retained history of a RingLogger.
const DefaultCapacity = 100

// Logger is the injected logging dependency. Implementations must be safe
// for concurrent use.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Entry is one retained log line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// RingLogger writes to the standard logger and retains the most recent
// entries in a fixed-capacity ring, evicting the oldest first.
type RingLogger struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	out      *log.Logger
}

// New returns a RingLogger with the given capacity writing through the
// standard library logger. Capacity values below 1 fall back to
// DefaultCapacity.
func New(capacity int) *RingLogger {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &RingLogger{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		out:      log.Default(),
	}
}

func (l *RingLogger) Infof(format string, args ...interface{})  { l.append("info", format, args...) }
func (l *RingLogger) Warnf(format string, args ...interface{})  { l.append("warn", format, args...) }
func (l *RingLogger) Errorf(format string, args ...interface{}) { l.append("error", format, args...) }

func (l *RingLogger) append(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("[%s] %s", level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.capacity-1]
	}
	l.entries = append(l.entries, Entry{Time: time.Now(), Level: level, Message: msg})
}

// Recent returns a copy of the retained entries, oldest first.
func (l *RingLogger) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Discard drops everything. Useful in tests that only need a Logger.
type Discard struct{}

func (Discard) Infof(string, ...interface{})  {}
func (Discard) Warnf(string, ...interface{})  {}
func (Discard) Errorf(string, ...interface{}) {}
