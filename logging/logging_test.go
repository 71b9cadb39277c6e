package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesAtOrAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, LevelWarn, "")
	require.NoError(t, err)

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("a warning")
	l.Error("an error")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "a warning")
	assert.Contains(t, out, "an error")
}

func TestTimestampPatternPrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, LevelInfo, "%Y")
	require.NoError(t, err)

	l.Info("tagged line")

	out := buf.String()
	assert.Contains(t, out, "tagged line")
	// The strftime pattern expands to the current 4-digit year somewhere
	// ahead of the message text.
	idx := strings.Index(out, "tagged line")
	require.Greater(t, idx, 0)
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, LevelInfo, "")
	require.NoError(t, err)

	child := l.With("device", "/dev/ttyUSB0")
	child.Info("connected")

	assert.Contains(t, buf.String(), "device")
	assert.Contains(t, buf.String(), "/dev/ttyUSB0")
}
