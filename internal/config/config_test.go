package config

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/koki-develop/vidsheet/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, 30.0, cfg.Interval)
	assert.False(t, cfg.IntervalSet)
	assert.Equal(t, 5, cfg.Columns)
	assert.Equal(t, 250, cfg.Height)
	assert.Equal(t, 90, cfg.Quality)
	assert.True(t, cfg.Labels)
	assert.Equal(t, []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv"}, cfg.Extensions)
	assert.Equal(t, "skip", cfg.OnError)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 80, cfg.PreviewWidth)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("VIDSHEET_DIR", "/videos")
	t.Setenv("VIDSHEET_INTERVAL", "12.5")
	t.Setenv("VIDSHEET_COLUMNS", "3")
	t.Setenv("VIDSHEET_EXTENSIONS", "MP4,webm")
	t.Setenv("VIDSHEET_ON_ERROR", "ABORT")
	t.Setenv("VIDSHEET_TIMEOUT", "5s")
	t.Setenv("VIDSHEET_LOG_FORMAT", "json")
	t.Setenv("VIDSHEET_LABELS", "false")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/videos", cfg.Dir)
	assert.Equal(t, 12.5, cfg.Interval)
	assert.True(t, cfg.IntervalSet)
	assert.Equal(t, 3, cfg.Columns)
	assert.Equal(t, []string{".mp4", ".webm"}, cfg.Extensions)
	assert.Equal(t, "abort", cfg.OnError)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.Labels)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{name: "columns", key: "VIDSHEET_COLUMNS", value: "0", field: "Columns"},
		{name: "too many columns", key: "VIDSHEET_COLUMNS", value: "1099511627776", field: "Columns"},
		{name: "padding", key: "VIDSHEET_PADDING", value: "5000", field: "Padding"},
		{name: "margin", key: "VIDSHEET_MARGIN", value: "-1", field: "Margin"},
		{name: "height", key: "VIDSHEET_HEIGHT", value: "100000", field: "Height"},
		{name: "quality", key: "VIDSHEET_QUALITY", value: "101", field: "Quality"},
		{name: "on error", key: "VIDSHEET_ON_ERROR", value: "retry", field: "OnError"},
		{name: "log format", key: "VIDSHEET_LOG_FORMAT", value: "xml", field: "LogFormat"},
		{name: "offset", key: "VIDSHEET_OFFSET", value: "-1", field: "Offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDefault_MatchesPackages(t *testing.T) {
	cfg := Default()
	sc := session.DefaultConfig()

	assert.Equal(t, sc.Interval, cfg.Interval)
	assert.Equal(t, sc.Grid.Columns, cfg.Columns)
	assert.Equal(t, sc.Grid.Height, cfg.Height)
	assert.Equal(t, sc.Grid.Quality, cfg.Quality)
	assert.Equal(t, session.DefaultExtensions, cfg.Extensions)
	assert.Equal(t, string(sc.Policy), cfg.OnError)
	assert.Equal(t, ffmpeg.DefaultTimeout, cfg.Timeout)
	assert.NoError(t, cfg.Validate())

	// editing one config must not leak into the next
	cfg.Extensions[0] = ".webm"
	assert.Equal(t, ".mp4", Default().Extensions[0])
	assert.Equal(t, ".mp4", session.DefaultExtensions[0])
}

func TestLoad_Unparsable(t *testing.T) {
	t.Setenv("VIDSHEET_HEIGHT", "tall")

	_, err := Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_IntervalNotValidatedHere(t *testing.T) {
	t.Setenv("VIDSHEET_INTERVAL", "-4")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -4.0, cfg.Interval)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		Extensions: []string{" MKV", ".Mov", "", "avi"},
		OnError:    " Skip ",
		LogLevel:   "DEBUG",
		LogFormat:  "Text",
	}
	cfg.Normalize()

	assert.Equal(t, []string{".mkv", ".mov", ".avi"}, cfg.Extensions)
	assert.Equal(t, "skip", cfg.OnError)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &Config{LogFormat: "json", LogLevel: "info"}
		cfg.NewLogger(&buf).Info("hello", "k", "v")

		assert.Contains(t, buf.String(), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"k":"v"`)
	})

	t.Run("text without color off a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &Config{LogFormat: "text", LogLevel: "info"}
		cfg.NewLogger(&buf).Info("hello", "k", "v")

		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "k=v")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &Config{LogFormat: "text", LogLevel: "warn"}
		logger := cfg.NewLogger(&buf)
		logger.Info("quiet")
		logger.Warn("loud")

		assert.False(t, strings.Contains(buf.String(), "quiet"))
		assert.Contains(t, buf.String(), "loud")
	})
}

func TestString(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cfg.String(), "Columns: 5")
}
