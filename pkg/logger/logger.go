// Package logger holds the process-wide structured logger. Until a CLI or the
// macro handler installs one, entries are discarded.
package logger

import (
	"sync/atomic"

	"github.com/theory-cloud/cfntheory/pkg/observability"
)

type holder struct{ log observability.StructuredLogger }

var current atomic.Pointer[holder]

func init() { SetLogger(nil) }

func Logger() observability.StructuredLogger {
	return current.Load().log
}

// SetLogger installs next. Nil restores the discarding logger.
func SetLogger(next observability.StructuredLogger) {
	if next == nil {
		next = observability.NewNoOpLogger()
	}
	current.Store(&holder{log: next})
}
