package log

import (
	"testing"

	"github.com/hatlonely/pipesize/log/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	original := Default()
	require.NotNil(t, original)
	defer SetDefault(original)

	SetDefault(nil)
	assert.Same(t, original, Default())

	nop := logger.Nop()
	SetDefault(nop)
	assert.Equal(t, nop, Default())
	Default().WithGroup("calculator").With("name", "pipesize").Info("ignored")
}

func TestNewLoggerWithOptions(t *testing.T) {
	l, err := NewLoggerWithOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), l)

	l, err = NewLoggerWithOptions(&Options{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLoggerWithOptions(&Options{Level: "verbose"})
	assert.Error(t, err)
}
