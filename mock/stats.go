// Package mock holds recording implementations of the gtd.Statter and
// gtd.Logger interfaces for tests.
package mock

import (
	"fmt"
	"sync"
	"time"
)

// RecordingStatter is used for testing. It is safe for concurrent use.
type RecordingStatter struct {
	mu      sync.Mutex
	Counts  map[string]int64
	Timings map[string]int
}

// Count implements Count.
func (r *RecordingStatter) Count(name string, value int64, rate float64, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = make(map[string]int64)
	}
	r.Counts[name] += value
}

// Timing counts how many timings of name were recorded.
func (r *RecordingStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Timings == nil {
		r.Timings = make(map[string]int)
	}
	r.Timings[name]++
}

// RecordingLogger keeps every formatted line.
type RecordingLogger struct {
	mu     sync.Mutex
	Lines  []string
	Debugs []string
}

// Printf implements Logger.
func (l *RecordingLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, fmt.Sprintf(format, v...))
}

// Debugf implements Logger.
func (l *RecordingLogger) Debugf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, fmt.Sprintf(format, v...))
}
