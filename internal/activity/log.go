package activity

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// Capacity is the number of entries the feed retains
	Capacity = 30

	// DefaultDisplayLimit is how many entries a view renders by default
	DefaultDisplayLimit = 10
)

// Severity classifies an activity entry
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Entry is a single line of the activity feed
type Entry struct {
	Message  string
	Severity Severity
	Time     time.Time
}

// Log is a bounded, newest-first activity feed shared by every console component.
// It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Log
type Option func(*Log)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithLogger mirrors every entry to a structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// New creates an empty activity log
func New(opts ...Option) *Log {
	l := &Log{
		entries: make([]Entry, 0, Capacity),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a message at the head of the feed, evicting the oldest entry past Capacity
func (l *Log) Append(message string, severity Severity) {
	entry := Entry{Message: message, Severity: severity, Time: l.now()}

	l.mu.Lock()
	next := make([]Entry, 0, Capacity)
	next = append(next, entry)
	next = append(next, l.entries...)
	if len(next) > Capacity {
		next = next[:Capacity]
	}
	l.entries = next
	l.mu.Unlock()

	switch severity {
	case SeverityError:
		l.logger.Warn(message, zap.String("severity", string(severity)))
	default:
		l.logger.Info(message, zap.String("severity", string(severity)))
	}
}

// Info records an informational entry
func (l *Log) Info(message string) { l.Append(message, SeverityInfo) }

// Success records a success entry
func (l *Log) Success(message string) { l.Append(message, SeveritySuccess) }

// Error records an error entry
func (l *Log) Error(message string) { l.Append(message, SeverityError) }

// Entries returns a copy of every retained entry, newest first
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns at most n of the newest entries
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[:n])
	return out
}

// Len returns the number of retained entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
