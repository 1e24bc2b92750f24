package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, FormatJSON, slog.LevelInfo)
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Debug("hidden")
	logger.Info("item created", "sku", "SKU001")

	line := buf.String()
	assert.NotContains(t, line, "hidden")
	assert.Equal(t, "item created", gjson.Get(line, "msg").String())
	assert.Equal(t, "SKU001", gjson.Get(line, "sku").String())
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, FormatText, slog.LevelDebug)
	require.NoError(t, err)

	slog.New(h).Debug("seeding", "count", 100)
	assert.Contains(t, buf.String(), "seeding")
	assert.Contains(t, buf.String(), "count")
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Setup(&buf, FormatJSON, "warn")
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())

	slog.Info("dropped")
	slog.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	_, err = Setup(&buf, FormatJSON, "nope")
	assert.Error(t, err)
}
