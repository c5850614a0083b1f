package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")

	log, err := New(path, "debug")
	require.NoError(t, err)

	log.Info("booking id=%d created", 42)
	log.Debug("debug line")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "booking id=42 created")
	assert.Contains(t, string(data), "debug line")
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := New("", "verbose")
	assert.Error(t, err)
}

func TestWatermillAdapter_With(t *testing.T) {
	adapter := NewWatermillAdapter(NewNop())
	child := adapter.With(watermill.LogFields{"topic": "reservation.notifications"})

	assert.NotPanics(t, func() {
		child.Info("published", watermill.LogFields{"uuid": "1"})
		child.Trace("trace", nil)
	})
}
