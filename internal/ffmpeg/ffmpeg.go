package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrProbe      = errors.New("probe failed")
	ErrExtraction = errors.New("frame extraction failed")
)

const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
	DefaultTimeout     = 30 * time.Second
)

type Options struct {
	FFmpegPath  string
	FFprobePath string
	// Timeout bounds every single ffmpeg/ffprobe invocation.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Executor runs ffprobe and ffmpeg as child processes.
type Executor struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	logger      *slog.Logger
}

func New(opts Options) (*Executor, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = DefaultFFmpegPath
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = DefaultFFprobePath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ffprobePath, err := exec.LookPath(opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe not found: %w", ErrProbe, err)
	}
	ffmpegPath, err := exec.LookPath(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found: %w", ErrExtraction, err)
	}

	return &Executor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     opts.Timeout,
		logger:      opts.Logger.With("component", "ffmpeg"),
	}, nil
}

// ExtractFrame seeks to timestamp (seconds) and renders exactly one frame to dst.
func (e *Executor) ExtractFrame(ctx context.Context, video string, timestamp float64, dst string) error {
	ts := formatTimestamp(timestamp)
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", ts,
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		dst,
	}
	if _, err := e.run(ctx, e.ffmpegPath, args...); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", ErrExtraction, filepath.Base(video), ts, err)
	}

	if written(dst) {
		return nil
	}

	// ffmpeg exits 0 without writing anything when the seek lands past the last frame.
	// The container duration ends after the last frame starts, so a seek to the very
	// end does that too; render the final frame instead.
	if d, err := e.ProbeDuration(ctx, video); err == nil && timestamp <= d+endTolerance {
		e.logger.Debug("seek past last frame, using final frame", "video", filepath.Base(video), "timestamp", ts)
		if err := e.extractLast(ctx, video, dst); err != nil {
			return fmt.Errorf("%w: %s at %s: %w", ErrExtraction, filepath.Base(video), ts, err)
		}
		if written(dst) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s at %s: no frame written", ErrExtraction, filepath.Base(video), ts)
}

// endTolerance absorbs rounding between the probed duration and planned timestamps.
const endTolerance = 0.001

// extractLast decodes the last second of video, overwriting dst with every frame so
// that the final one remains.
func (e *Executor) extractLast(ctx context.Context, video, dst string) error {
	_, err := e.run(ctx, e.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-sseof", "-1",
		"-i", video,
		"-update", "1",
		"-q:v", "2",
		dst,
	)
	return err
}

func written(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func (e *Executor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug("executing", "cmd", filepath.Base(name), "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("timed out after %s", e.timeout)
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// formatTimestamp renders seconds in the HH:MM:SS.mmm form accepted by -ss.
func formatTimestamp(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
