package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	assert.Empty(t, buf.String(), "messages below the configured level should be dropped")

	logger.Warn("warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("role_id", 7).Info("matrix loaded")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "matrix loaded", entry["msg"])
	assert.Equal(t, float64(7), entry["role_id"])
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(assert.AnError).Error("refresh failed")
	assert.Contains(t, buf.String(), assert.AnError.Error())

	// nil error is a no-op annotation
	same := logger.WithError(nil)
	assert.Equal(t, logger, same)
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithSubject(ctx, "user-42")

	assert.Equal(t, "user-42", GetSubject(ctx))
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "user-42")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
}
