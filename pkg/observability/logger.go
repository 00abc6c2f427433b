package observability

import (
	"context"
	"time"
)

type SanitizerFunc func(key string, value any) any

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	RunID string `json:"run_id,omitempty"`
	Stack string `json:"stack,omitempty"`
	Path  string `json:"path,omitempty"`
}

// StructuredLogger is the logging surface used by the construct tree,
// synthesis, the CLI and the tag macro.
//
// Scoped loggers carry the synthesis run id, the stack being synthesized and
// the construct path so entries from one run can be correlated.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithField(key string, value any) StructuredLogger
	WithFields(fields map[string]any) StructuredLogger

	WithRunID(runID string) StructuredLogger
	WithStack(stack string) StructuredLogger
	WithPath(path string) StructuredLogger

	Flush(ctx context.Context) error
	Close() error
	IsHealthy() bool
	GetStats() LoggerStats
}

type LoggerStats struct {
	LastFlush     time.Time     `json:"last_flush"`
	LastError     string        `json:"last_error,omitempty"`
	EntriesLogged int64         `json:"entries_logged"`
	FlushCount    int64         `json:"flush_count"`
	ErrorCount    int64         `json:"error_count"`
	AverageFlush  time.Duration `json:"average_flush_time"`
}

// LoggerConfig configures logger implementations. An empty Format selects
// JSON inside Lambda and console output elsewhere.
type LoggerConfig struct {
	Format       string `json:"format" yaml:"format"`
	Level        string `json:"level" yaml:"level"`
	EnableStack  bool   `json:"enable_stack" yaml:"enable_stack"`
	EnableCaller bool   `json:"enable_caller" yaml:"enable_caller"`
}

type LoggerFactory interface {
	CreateConsoleLogger(config LoggerConfig) (StructuredLogger, error)
	CreateTestLogger() StructuredLogger
	CreateNoOpLogger() StructuredLogger
}
