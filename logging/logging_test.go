package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	l.Debug("shown", Fields{"k": 3})
	assert.Contains(t, buf.String(), "[DEBUG] shown k=3")

	buf.Reset()
	l.Error(errors.New("boom"), "estimate failed")
	assert.Contains(t, buf.String(), "[ERROR] estimate failed: boom")
}

func TestWithFieldsSortedAndInherited(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWriterLogger(&buf).WithFields(Fields{"component": "pointset"})
	l.Info("window", Fields{"begin": 1, "end": 4})

	assert.Contains(t, buf.String(), "[INFO] window begin=1 component=pointset end=4")
}

func TestWithContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithFields(context.Background(), Fields{"run": "a"})
	ctx = ContextWithFields(ctx, Fields{"trial": 2})

	NewWriterLogger(&buf).WithContext(ctx).Warn("nan estimate")
	assert.Contains(t, buf.String(), "run=a trial=2")

	fields, ok := FieldsFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, fields)
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "FATAL", FatalLevel.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
