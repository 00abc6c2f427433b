// Package zap implements observability.StructuredLogger on go.uber.org/zap.
package zap

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/observability"
	"github.com/theory-cloud/cfntheory/pkg/sanitization"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

type Option func(*loggerOptions)

type loggerOptions struct {
	zapLogger *ubzap.Logger
	sanitizer observability.SanitizerFunc
	output    io.Writer
}

// WithZapLogger logs through an existing zap logger. Format, level and
// output settings are then ignored.
func WithZapLogger(logger *ubzap.Logger) Option {
	return func(opts *loggerOptions) { opts.zapLogger = logger }
}

func WithSanitizer(fn observability.SanitizerFunc) Option {
	return func(opts *loggerOptions) { opts.sanitizer = fn }
}

// WithOutput directs encoded entries to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(opts *loggerOptions) { opts.output = w }
}

// sink is shared by a logger and every scoped logger derived from it.
type sink struct {
	base     *ubzap.Logger
	sanitize observability.SanitizerFunc

	mu         sync.Mutex
	closed     bool
	entries    int64
	flushes    int64
	errors     int64
	lastErr    string
	lastFlush  time.Time
	flushTotal time.Duration
}

// Logger is safe for concurrent use.
type Logger struct {
	sink *sink
	log  *ubzap.Logger
}

var _ observability.StructuredLogger = (*Logger)(nil)

func NewZapLogger(config observability.LoggerConfig, options ...Option) (observability.StructuredLogger, error) {
	opts := &loggerOptions{sanitizer: sanitization.SanitizeFieldValue, output: os.Stderr}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	base := opts.zapLogger
	if base == nil {
		var err error
		if base, err = buildZap(normalizeLoggerConfig(config), opts.output); err != nil {
			return nil, err
		}
	}
	s := &sink{base: base, sanitize: opts.sanitizer}
	return &Logger{sink: s, log: base}, nil
}

func buildZap(cfg observability.LoggerConfig, out io.Writer) (*ubzap.Logger, error) {
	level, err := parseZapLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		encoder = zapcore.NewConsoleEncoder(zapEncoderConfig(cfg.EnableCaller))
	case "json", "":
		encoder = zapcore.NewJSONEncoder(zapEncoderConfig(cfg.EnableCaller))
	default:
		return nil, fmt.Errorf("observability/zap: unsupported log format %q", cfg.Format)
	}

	var zopts []ubzap.Option
	if cfg.EnableCaller {
		zopts = append(zopts, ubzap.AddCaller(), ubzap.AddCallerSkip(2))
	}
	if cfg.EnableStack {
		zopts = append(zopts, ubzap.AddStacktrace(zapcore.ErrorLevel))
	}
	return ubzap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level), zopts...), nil
}

// normalizeLoggerConfig picks JSON inside Lambda, console elsewhere, and the
// info level when none is set.
func normalizeLoggerConfig(config observability.LoggerConfig) observability.LoggerConfig {
	if strings.TrimSpace(config.Format) == "" {
		config.Format = "console"
		if cfntheory.IsLambda() {
			config.Format = "json"
		}
	}
	if strings.TrimSpace(config.Level) == "" {
		config.Level = levelInfo
	}
	return config
}

func parseZapLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		level = levelWarn
	case levelDebug, levelInfo, levelWarn, levelError:
	default:
		return 0, fmt.Errorf("observability/zap: unsupported log level %q", level)
	}
	return zapcore.ParseLevel(level)
}

func zapEncoderConfig(enableCaller bool) zapcore.EncoderConfig {
	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if enableCaller {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return enc
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.emit(zapcore.DebugLevel, message, fields)
}

func (l *Logger) Info(message string, fields ...map[string]any) {
	l.emit(zapcore.InfoLevel, message, fields)
}

func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.emit(zapcore.WarnLevel, message, fields)
}

func (l *Logger) Error(message string, fields ...map[string]any) {
	l.emit(zapcore.ErrorLevel, message, fields)
}

func (l *Logger) WithField(key string, value any) observability.StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	if !l.open() {
		return l
	}
	return &Logger{sink: l.sink, log: l.log.With(l.sink.fields(fields)...)}
}

func (l *Logger) WithRunID(runID string) observability.StructuredLogger {
	return l.scoped("run_id", runID)
}

func (l *Logger) WithStack(stack string) observability.StructuredLogger {
	return l.scoped("stack", stack)
}

func (l *Logger) WithPath(path string) observability.StructuredLogger {
	return l.scoped("path", path)
}

func (l *Logger) scoped(key, value string) observability.StructuredLogger {
	if !l.open() {
		return l
	}
	return &Logger{sink: l.sink, log: l.log.With(ubzap.String(key, sanitization.SanitizeLogString(value)))}
}

func (l *Logger) emit(level zapcore.Level, message string, sets []map[string]any) {
	if !l.open() {
		return
	}
	merged := make(map[string]any)
	for _, set := range sets {
		for k, v := range set {
			merged[k] = v
		}
	}
	if ce := l.log.Check(level, sanitization.SanitizeLogString(message)); ce != nil {
		ce.Write(l.sink.fields(merged)...)
	}
	l.sink.mu.Lock()
	l.sink.entries++
	l.sink.mu.Unlock()
}

func (l *Logger) open() bool {
	if l == nil || l.sink == nil || l.log == nil {
		return false
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return !l.sink.closed
}

func (l *Logger) Flush(ctx context.Context) error {
	if l == nil || l.sink == nil {
		return nil
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	start := time.Now()
	err := syncLogger(l.sink.base)

	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	s.lastFlush = time.Now()
	s.flushTotal += time.Since(start)
	s.record(err)
	return err
}

// Close flushes and stops the logger and every logger scoped from it.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := syncLogger(s.base)
	s.record(err)
	return err
}

func (l *Logger) IsHealthy() bool {
	if l == nil || l.sink == nil {
		return false
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return !l.sink.closed && l.sink.lastErr == ""
}

func (l *Logger) GetStats() observability.LoggerStats {
	if l == nil || l.sink == nil {
		return observability.LoggerStats{}
	}
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := observability.LoggerStats{
		LastFlush:     s.lastFlush,
		LastError:     s.lastErr,
		EntriesLogged: s.entries,
		FlushCount:    s.flushes,
		ErrorCount:    s.errors,
	}
	if s.flushes > 0 {
		stats.AverageFlush = s.flushTotal / time.Duration(s.flushes)
	}
	return stats
}

// fields sanitizes values and orders them by key so encoded lines are stable.
func (s *sink) fields(values map[string]any) []ubzap.Field {
	if len(values) == 0 {
		return nil
	}
	sanitize := s.sanitize
	if sanitize == nil {
		sanitize = sanitization.SanitizeFieldValue
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]ubzap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, ubzap.Any(k, sanitize(k, values[k])))
	}
	return out
}

// record must be called with s.mu held.
func (s *sink) record(err error) {
	if err == nil {
		return
	}
	s.errors++
	s.lastErr = err.Error()
}

// syncLogger flushes the zap core. Syncing a terminal or pipe fails with
// EINVAL or ENOTTY on some platforms; those are not logging failures.
func syncLogger(logger *ubzap.Logger) error {
	err := logger.Sync()
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl") {
		return nil
	}
	return err
}
