package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

type probe struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p *probe) Duration() (float64, error) {
	raw := strings.TrimSpace(p.Format.Duration)
	if raw == "" {
		return 0, errors.New("no duration reported")
	}

	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", raw, err)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// ProbeDuration returns the container duration of path in seconds.
func (e *Executor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProbe, err)
	}

	out, err := e.run(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to execute ffprobe: %w", ErrProbe, err)
	}

	var p probe
	if err := json.Unmarshal(out, &p); err != nil {
		return 0, fmt.Errorf("%w: failed to unmarshal ffprobe output: %w", ErrProbe, err)
	}

	d, err := p.Duration()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	e.logger.Debug("probed", "path", path, "duration", d)
	return d, nil
}
