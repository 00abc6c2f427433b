package zap

import "github.com/theory-cloud/cfntheory/pkg/observability"

// Factory builds zap loggers that share a set of options, typically an
// output writer.
type Factory []Option

var _ observability.LoggerFactory = Factory(nil)

func NewZapLoggerFactory(options ...Option) Factory {
	return append(Factory(nil), options...)
}

func (f Factory) CreateConsoleLogger(config observability.LoggerConfig) (observability.StructuredLogger, error) {
	return NewZapLogger(config, f...)
}

func (Factory) CreateTestLogger() observability.StructuredLogger { return observability.NewTestLogger() }

func (Factory) CreateNoOpLogger() observability.StructuredLogger { return observability.NewNoOpLogger() }
