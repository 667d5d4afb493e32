package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igresolver/pkg/config"
)

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "shouty"})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"fatal", false},
		{"disabled", false},
		{"INFO", false},
		{"nope", true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			_, err := parseLogLevel(test.input)
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTestLoggerCaptures(t *testing.T) {
	log := NewTestLogger()

	log.Info("hello")
	log.ErrorWithFields("boom", map[string]interface{}{"key": "value"})
	log.WithError(errors.New("wrapped")).Warn("careful")

	messages := log.GetMessages()
	require.Len(t, messages, 3)

	assert.True(t, log.HasMessage("hello"))
	assert.True(t, log.HasError())

	errorMessages := log.GetMessagesByLevel("ERROR")
	require.Len(t, errorMessages, 1)
	assert.Equal(t, "value", errorMessages[0].Fields["key"])

	warnMessages := log.GetMessagesByLevel("WARN")
	require.Len(t, warnMessages, 1)
	assert.EqualError(t, warnMessages[0].Error, "wrapped")

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestTestLoggerFieldContext(t *testing.T) {
	log := NewTestLogger()

	log.WithField("a", 1).WithField("b", 2).Info("both fields")

	messages := log.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, 1, messages[0].Fields["a"])
	assert.Equal(t, 2, messages[0].Fields["b"])
}
