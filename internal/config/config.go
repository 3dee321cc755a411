// Package config loads vidsheet defaults from VIDSHEET_* environment variables.
// Command line flags override them.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/koki-develop/vidsheet/internal/session"
	"github.com/koki-develop/vidsheet/internal/term"
	"github.com/lmittmann/tint"
	"github.com/sethvargo/go-envconfig"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting a run needs. Each field may be overridden by its
// VIDSHEET_* variable; unset variables keep the values from Default.
type Config struct {
	Dir string `env:"VIDSHEET_DIR, overwrite" validate:"required"`

	// Interval is checked by the planner so that a bad value reports the same
	// error whether it came from the environment, a flag or a prompt.
	Interval    float64 `env:"VIDSHEET_INTERVAL, overwrite"`
	IntervalSet bool
	Offset      float64 `env:"VIDSHEET_OFFSET, overwrite" validate:"gte=0"`

	// Bounds keep the sheet below the JPEG size limit.
	Columns int  `env:"VIDSHEET_COLUMNS, overwrite" validate:"min=1,max=100"`
	Height  int  `env:"VIDSHEET_HEIGHT, overwrite" validate:"min=1,max=4096"`
	Padding int  `env:"VIDSHEET_PADDING, overwrite" validate:"gte=0,max=1000"`
	Margin  int  `env:"VIDSHEET_MARGIN, overwrite" validate:"gte=0,max=1000"`
	Quality int  `env:"VIDSHEET_QUALITY, overwrite" validate:"min=1,max=100"`
	Labels  bool `env:"VIDSHEET_LABELS, overwrite"`

	Extensions []string `env:"VIDSHEET_EXTENSIONS, overwrite" validate:"min=1,dive,required"`

	OutDir  string `env:"VIDSHEET_OUT_DIR, overwrite"`
	Output  string `env:"VIDSHEET_OUTPUT, overwrite"`
	TempDir string `env:"VIDSHEET_TEMP_DIR, overwrite"`

	OnError string        `env:"VIDSHEET_ON_ERROR, overwrite" validate:"oneof=skip abort"`
	Timeout time.Duration `env:"VIDSHEET_TIMEOUT, overwrite" validate:"gt=0"`

	FFmpegPath  string `env:"VIDSHEET_FFMPEG, overwrite" validate:"required"`
	FFprobePath string `env:"VIDSHEET_FFPROBE, overwrite" validate:"required"`

	LogLevel  string `env:"VIDSHEET_LOG_LEVEL, overwrite" validate:"oneof=debug info warn warning error"`
	LogFormat string `env:"VIDSHEET_LOG_FORMAT, overwrite" validate:"oneof=text json"`

	NonInteractive bool `env:"VIDSHEET_NON_INTERACTIVE, overwrite"`
	Preview        bool `env:"VIDSHEET_PREVIEW, overwrite"`
	PreviewWidth   int  `env:"VIDSHEET_PREVIEW_WIDTH, overwrite" validate:"min=8"`
}

// Default returns the built-in settings, taken from the packages that use them.
func Default() *Config {
	sc := session.DefaultConfig()
	return &Config{
		Dir:          sc.Dir,
		Interval:     sc.Interval,
		Offset:       sc.Offset,
		Columns:      sc.Grid.Columns,
		Height:       sc.Grid.Height,
		Padding:      sc.Grid.Padding,
		Margin:       sc.Grid.Margin,
		Quality:      sc.Grid.Quality,
		Labels:       sc.Grid.Labels,
		Extensions:   sc.Extensions,
		OutDir:       sc.OutDir,
		OnError:      string(sc.Policy),
		Timeout:      ffmpeg.DefaultTimeout,
		FFmpegPath:   ffmpeg.DefaultFFmpegPath,
		FFprobePath:  ffmpeg.DefaultFFprobePath,
		LogLevel:     "info",
		LogFormat:    "text",
		PreviewWidth: 80,
	}
}

// Load applies the environment on top of Default and validates the result.
func Load(ctx context.Context) (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	_, cfg.IntervalSet = os.LookupEnv("VIDSHEET_INTERVAL")

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize lower-cases enumerations and gives every extension a leading dot.
func (c *Config) Normalize() {
	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Extensions = exts

	c.OnError = strings.ToLower(strings.TrimSpace(c.OnError))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

var validate = validator.New()

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() == "" {
			msgs[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		} else {
			msgs[i] = fmt.Sprintf("%s=%v failed %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// NewLogger builds the process logger writing to w. Text output is colored only
// when w is a terminal.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !term.IsTerminal(w),
	}))
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Dir: %s, Interval: %v, Offset: %v, Columns: %d, Height: %d, Quality: %d, Extensions: %s, OutDir: %s, OnError: %s, Timeout: %s, LogLevel: %s, LogFormat: %s}",
		c.Dir,
		c.Interval,
		c.Offset,
		c.Columns,
		c.Height,
		c.Quality,
		strings.Join(c.Extensions, ","),
		c.OutDir,
		c.OnError,
		c.Timeout,
		c.LogLevel,
		c.LogFormat,
	)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
