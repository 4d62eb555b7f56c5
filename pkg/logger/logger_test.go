package logger

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestNew_RespectsLevel(t *testing.T) {
	l, err := New("error")
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestFromConfig_DebugMode(t *testing.T) {
	l, err := FromConfig(gin.DebugMode, "debug")
	require.NoError(t, err)

	assert.Equal(t, zapcore.DebugLevel, l.Level())
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestSetLevel_ReachesChildren(t *testing.T) {
	l, err := FromConfig(gin.ReleaseMode, "info")
	require.NoError(t, err)
	child := l.WithRequest("corr-1", "u1")

	l.SetLevel("error")

	assert.Equal(t, zapcore.ErrorLevel, child.Level())
	assert.False(t, child.Core().Enabled(zapcore.WarnLevel))
}

func TestGlobal_Replaceable(t *testing.T) {
	prev := Global()
	require.NotNil(t, prev)
	t.Cleanup(func() { SetGlobal(prev) })

	nop := NewNop()
	SetGlobal(nop)
	assert.Same(t, nop, Global())
}
