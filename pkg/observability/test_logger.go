package observability

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/theory-cloud/cfntheory/pkg/sanitization"
)

// recorder is the entry buffer shared by a TestLogger and its scoped copies.
type recorder struct {
	mu        sync.Mutex
	entries   []LogEntry
	flushes   int64
	lastFlush time.Time
	closed    bool
}

// TestLogger records entries in memory so tests can assert on what synthesis
// logged. Closing any logger in a family closes all of them.
type TestLogger struct {
	rec    *recorder
	fields map[string]any

	runID string
	stack string
	path  string
}

var _ StructuredLogger = (*TestLogger)(nil)

func NewTestLogger() *TestLogger {
	return &TestLogger{rec: &recorder{}}
}

// Entries returns a copy of everything recorded so far.
func (l *TestLogger) Entries() []LogEntry {
	if l == nil || l.rec == nil {
		return nil
	}
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return append([]LogEntry(nil), l.rec.entries...)
}

// Messages returns the logged messages at level, in order.
func (l *TestLogger) Messages(level string) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func (l *TestLogger) Debug(message string, fields ...map[string]any) {
	l.record("debug", message, fields)
}

func (l *TestLogger) Info(message string, fields ...map[string]any) {
	l.record("info", message, fields)
}

func (l *TestLogger) Warn(message string, fields ...map[string]any) {
	l.record("warn", message, fields)
}

func (l *TestLogger) Error(message string, fields ...map[string]any) {
	l.record("error", message, fields)
}

func (l *TestLogger) WithField(key string, value any) StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *TestLogger) WithFields(fields map[string]any) StructuredLogger {
	next := l.clone()
	maps.Copy(next.fields, fields)
	return next
}

func (l *TestLogger) WithRunID(runID string) StructuredLogger {
	next := l.clone()
	next.runID = runID
	return next
}

func (l *TestLogger) WithStack(stack string) StructuredLogger {
	next := l.clone()
	next.stack = stack
	return next
}

func (l *TestLogger) WithPath(path string) StructuredLogger {
	next := l.clone()
	next.path = path
	return next
}

func (l *TestLogger) Flush(ctx context.Context) error {
	if l == nil || l.rec == nil {
		return nil
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	l.rec.mu.Lock()
	l.rec.flushes++
	l.rec.lastFlush = time.Now()
	l.rec.mu.Unlock()
	return nil
}

func (l *TestLogger) Close() error {
	if l == nil || l.rec == nil {
		return nil
	}
	l.rec.mu.Lock()
	l.rec.closed = true
	l.rec.mu.Unlock()
	return nil
}

func (l *TestLogger) IsHealthy() bool {
	if l == nil || l.rec == nil {
		return false
	}
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return !l.rec.closed
}

func (l *TestLogger) GetStats() LoggerStats {
	if l == nil || l.rec == nil {
		return LoggerStats{}
	}
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return LoggerStats{
		LastFlush:     l.rec.lastFlush,
		EntriesLogged: int64(len(l.rec.entries)),
		FlushCount:    l.rec.flushes,
	}
}

func (l *TestLogger) clone() *TestLogger {
	if l == nil {
		return NewTestLogger()
	}
	next := *l
	next.fields = maps.Clone(l.fields)
	if next.fields == nil {
		next.fields = make(map[string]any)
	}
	return &next
}

func (l *TestLogger) record(level, message string, sets []map[string]any) {
	if l == nil || l.rec == nil {
		return
	}
	fields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fields[k] = sanitization.SanitizeFieldValue(k, v)
	}
	for _, set := range sets {
		for k, v := range set {
			fields[k] = sanitization.SanitizeFieldValue(k, v)
		}
	}
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   sanitization.SanitizeLogString(message),
		Fields:    fields,
		RunID:     l.runID,
		Stack:     l.stack,
		Path:      l.path,
	}

	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	if l.rec.closed {
		return
	}
	l.rec.entries = append(l.rec.entries, entry)
}
