package observability

import "context"

// discard drops every entry. It is the logger used before one is installed.
type discard struct{}

var nop StructuredLogger = &discard{}

func NewNoOpLogger() StructuredLogger { return nop }

func (*discard) Debug(string, ...map[string]any) {}
func (*discard) Info(string, ...map[string]any)  {}
func (*discard) Warn(string, ...map[string]any)  {}
func (*discard) Error(string, ...map[string]any) {}

func (d *discard) WithField(string, any) StructuredLogger     { return d }
func (d *discard) WithFields(map[string]any) StructuredLogger { return d }
func (d *discard) WithRunID(string) StructuredLogger          { return d }
func (d *discard) WithStack(string) StructuredLogger          { return d }
func (d *discard) WithPath(string) StructuredLogger           { return d }
func (*discard) Flush(context.Context) error                  { return nil }
func (*discard) Close() error                                 { return nil }
func (*discard) IsHealthy() bool                              { return true }
func (*discard) GetStats() LoggerStats                        { return LoggerStats{} }
