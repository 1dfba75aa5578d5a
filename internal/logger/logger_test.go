package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Modes(t *testing.T) {
	release, err := New("release")
	require.NoError(t, err)
	require.False(t, release.Core().Enabled(zapcore.DebugLevel))

	debug, err := New("debug")
	require.NoError(t, err)
	require.True(t, debug.Core().Enabled(zapcore.DebugLevel))
}
