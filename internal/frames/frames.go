// Package frames owns the temporary images extracted for one run.
package frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/schollz/progressbar/v3"
)

// Renderer renders the frame at timestamp (seconds) of video into dst.
type Renderer interface {
	ExtractFrame(ctx context.Context, video string, timestamp float64, dst string) error
}

// Policy decides what a failed frame does to the rest of the run.
type Policy string

const (
	// PolicySkip records the failure and leaves that grid cell blank.
	PolicySkip Policy = "skip"
	// PolicyAbort stops at the first failure.
	PolicyAbort Policy = "abort"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyAbort:
		return p, nil
	case "":
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown extraction policy %q (want %q or %q)", s, PolicySkip, PolicyAbort)
}

// Frame is the outcome of one extraction. Path is empty when Err is set.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
	Err       error
}

func (f Frame) OK() bool {
	return f.Err == nil && f.Path != ""
}

type Options struct {
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

// Workspace is a private temp directory holding the frames of a single run.
type Workspace struct {
	dir      string
	progress io.Writer
	logger   *slog.Logger
}

// New creates the workspace directory under parent (os.TempDir when empty).
func New(parent string, opts Options) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "vidsheet-")
	if err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}

	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Workspace{
		dir:      dir,
		progress: opts.Progress,
		logger:   opts.Logger.With("component", "frames"),
	}, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the file name reserved for the i-th frame.
func (w *Workspace) Path(i int) string {
	return filepath.Join(w.dir, fmt.Sprintf("frame_%04d.jpg", i))
}

// Extract renders one frame per timestamp, in order. It always returns one Frame per
// timestamp that was attempted. Under PolicyAbort, or when ctx is done, it stops early
// and returns an error.
func (w *Workspace) Extract(ctx context.Context, r Renderer, video string, timestamps []float64, policy Policy) ([]Frame, error) {
	bar := progressbar.NewOptions(len(timestamps),
		progressbar.OptionSetWriter(w.progress),
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)

	frames, err := w.extract(ctx, bar, r, video, timestamps, policy)

	// the bar usually shares stderr with the logger, so report skips once it is gone
	_ = bar.Finish()
	if policy != PolicyAbort {
		for _, f := range frames {
			if f.Err != nil {
				w.logger.Warn("skipped frame", "index", f.Index, "timestamp", f.Timestamp, "error", f.Err)
			}
		}
	}
	return frames, err
}

func (w *Workspace) extract(ctx context.Context, bar *progressbar.ProgressBar, r Renderer, video string, timestamps []float64, policy Policy) ([]Frame, error) {
	frames := make([]Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		f := Frame{Index: i, Timestamp: ts}
		dst := w.Path(i)
		if err := r.ExtractFrame(ctx, video, ts, dst); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return frames, ctxErr
			}
			if !errors.Is(err, ffmpeg.ErrExtraction) {
				err = fmt.Errorf("%w: %w", ffmpeg.ErrExtraction, err)
			}
			_ = os.Remove(dst)
			f.Err = err
			frames = append(frames, f)

			if policy == PolicyAbort {
				return frames, err
			}
			_ = bar.Add(1)
			continue
		}

		f.Path = dst
		frames = append(frames, f)
		_ = bar.Add(1)
	}
	return frames, nil
}

// Cleanup removes the workspace and everything in it. It is safe to call twice.
func (w *Workspace) Cleanup() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", w.dir, err)
	}
	return nil
}
