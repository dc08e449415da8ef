package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for name, expected := range tests {
		level, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, level, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLoggerLevelsAndFields(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewLoggerWithWriters(&out, &errOut, false)

	child := logger.WithFields(Fields{"component": "cpps"})
	child.Debug("hidden")
	assert.Empty(t, out.String())

	// Level changes on the parent reach existing children
	logger.SetLevel(DebugLevel)
	child.Debug("frames processed", Fields{"frames": 12})
	assert.Contains(t, out.String(), "[DEBUG] frames processed component=cpps frames=12")

	child.Error(errors.New("boom"), "analysis failed")
	assert.Contains(t, errOut.String(), "[ERROR] analysis failed: boom component=cpps")
}

func TestWithContextFields(t *testing.T) {
	var out bytes.Buffer
	logger := NewLoggerWithWriters(&out, &out, false)

	ctx := ContextWithFields(context.Background(), Fields{"file": "a.wav"})
	ctx = ContextWithFields(ctx, Fields{"index": 1})

	logger.WithContext(ctx).Info("decoded")
	assert.Contains(t, out.String(), "file=a.wav")
	assert.Contains(t, out.String(), "index=1")
}

func TestSetGlobalLoggerNilUsesNoOp(t *testing.T) {
	previous := GetGlobalLogger()
	defer SetGlobalLogger(previous)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}

func TestErrorStreamLoggerWritesEveryLevel(t *testing.T) {
	var errOut bytes.Buffer
	logger := NewErrorStreamLogger(&errOut, true)
	logger.SetLevel(DebugLevel)

	logger.Debug("frames ready")
	logger.Info("analysis complete", Fields{"files": 2})
	logger.Warn("file excluded")

	assert.Contains(t, errOut.String(), "[DEBUG] frames ready")
	assert.Contains(t, errOut.String(), "[INFO] analysis complete files=2")
	assert.Contains(t, errOut.String(), "[WARN] file excluded")
	assert.NotContains(t, errOut.String(), "\033[")
}
