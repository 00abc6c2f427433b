package logger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory/pkg/observability"
)

func TestLogger_DefaultIsNoOp(t *testing.T) {
	got := Logger()
	require.NotNil(t, got)
	require.True(t, got.IsHealthy())
}

func TestLogger_SetLogger(t *testing.T) {
	test := observability.NewTestLogger()
	SetLogger(test)
	require.Same(t, test, Logger())

	Logger().Info("registered")
	require.Equal(t, []string{"registered"}, test.Messages("info"))

	SetLogger(nil)
	require.NotNil(t, Logger())
	require.NotSame(t, test, Logger())
}
