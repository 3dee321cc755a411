// Package session drives one contact sheet run from video discovery to cleanup.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/koki-develop/vidsheet/internal/frames"
	"github.com/koki-develop/vidsheet/internal/grid"
	"github.com/koki-develop/vidsheet/internal/planner"
)

var (
	ErrNoVideoFound     = errors.New("no video found")
	ErrInvalidSelection = errors.New("invalid selection")
)

// Backend is the external media toolkit.
type Backend interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractFrame(ctx context.Context, video string, timestamp float64, dst string) error
}

var _ Backend = (*ffmpeg.Executor)(nil)

// Selector answers the questions a run may need to ask the user.
type Selector interface {
	// ChooseVideo returns the 1-based position of the chosen video.
	ChooseVideo(ctx context.Context, videos []VideoFile) (int, error)
	ChooseInterval(ctx context.Context, def float64) (float64, error)
}

type VideoFile struct {
	Path string
	Name string
}

func newVideoFile(path string) VideoFile {
	return VideoFile{Path: path, Name: filepath.Base(path)}
}

// SheetName returns the default contact sheet file name for v.
func (v VideoFile) SheetName() string {
	return strings.TrimSuffix(v.Name, filepath.Ext(v.Name)) + "_contact_sheet.jpg"
}

const DefaultInterval = 30

var DefaultExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv"}

type Config struct {
	// Dir is scanned for videos when Video is empty.
	Dir   string
	Video string
	// Extensions are matched case-insensitively and include the leading dot.
	Extensions []string

	Interval float64
	// IntervalSet means Interval was given explicitly and must not be asked for.
	IntervalSet bool
	Offset      float64

	// Output overrides OutDir/<name>_contact_sheet.jpg.
	Output  string
	OutDir  string
	TempDir string

	Policy   frames.Policy
	Grid     grid.Options
	Progress io.Writer
}

func DefaultConfig() Config {
	return Config{
		Dir:        ".",
		Extensions: slices.Clone(DefaultExtensions),
		Interval:   DefaultInterval,
		OutDir:     ".",
		Policy:     frames.PolicySkip,
		Grid:       grid.DefaultOptions(),
	}
}

// Report summarises a finished run.
type Report struct {
	Video      VideoFile
	Duration   float64
	Interval   float64
	Timestamps []float64
	Extracted  int
	Skipped    []frames.Frame
	Output     string
	Layout     grid.Layout
}

type Controller struct {
	cfg      Config
	backend  Backend
	selector Selector
	logger   *slog.Logger
	state    State
}

func New(cfg Config, backend Backend, selector Selector, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:      cfg,
		backend:  backend,
		selector: selector,
		logger:   logger.With("component", "session"),
		state:    StateIdle,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) transition(to State) {
	c.logger.Debug("state", "from", c.state, "to", to)
	c.state = to
}

// Discover lists the videos in the configured directory, sorted by name.
func (c *Controller) Discover() ([]VideoFile, error) {
	exts := make(map[string]bool, len(c.cfg.Extensions))
	for _, ext := range c.cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}

	entries, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoVideoFound, err)
	}

	var videos []VideoFile
	for _, entry := range entries {
		if !exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(c.cfg.Dir, entry.Name())
		// Stat follows symlinks, so a linked video still counts.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		videos = append(videos, newVideoFile(path))
	}

	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: no files matching %s in %s",
			ErrNoVideoFound, strings.Join(c.cfg.Extensions, ", "), c.cfg.Dir)
	}
	return videos, nil
}

// Run executes the whole pipeline once. Temporary frames are removed before Run
// returns, whatever the outcome.
func (c *Controller) Run(ctx context.Context) (report *Report, err error) {
	defer func() {
		if err != nil {
			c.transition(StateFailed)
		}
	}()

	c.transition(StateDiscovering)
	video, err := c.selectVideo(ctx)
	if err != nil {
		return nil, err
	}

	interval, err := c.interval(ctx)
	if err != nil {
		return nil, err
	}

	c.transition(StateProbing)
	c.logger.Info("probing", "video", video.Name)
	duration, err := c.backend.ProbeDuration(ctx, video.Path)
	if err != nil {
		return nil, err
	}
	if duration == 0 {
		return nil, fmt.Errorf("%w: %s has zero duration", ffmpeg.ErrProbe, video.Name)
	}

	c.transition(StatePlanning)
	timestamps, err := planner.PlanFrom(duration, interval, c.cfg.Offset)
	if err != nil {
		return nil, err
	}
	c.logger.Info("planned",
		"duration", duration,
		"interval", interval,
		"frames", len(timestamps),
	)

	c.transition(StateExtracting)
	ws, err := frames.New(c.cfg.TempDir, frames.Options{Progress: c.cfg.Progress, Logger: c.logger})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			c.logger.Warn("cleanup failed", "error", cerr)
		}
	}()

	extracted, err := ws.Extract(ctx, c.backend, video.Path, timestamps, c.cfg.Policy)
	if err != nil {
		return nil, err
	}

	report = &Report{
		Video:      video,
		Duration:   duration,
		Interval:   interval,
		Timestamps: timestamps,
		Output:     c.outputPath(video),
	}
	cells := make([]grid.Cell, len(extracted))
	for i, f := range extracted {
		cells[i] = grid.Cell{Path: f.Path, Label: grid.FormatLabel(f.Timestamp)}
		if f.OK() {
			report.Extracted++
		} else {
			report.Skipped = append(report.Skipped, f)
		}
	}

	c.transition(StateComposing)
	layout, err := grid.NewComposer(c.cfg.Grid, c.logger).Compose(cells, report.Output)
	if err != nil {
		return nil, err
	}
	report.Layout = *layout

	c.transition(StateDone)
	c.logger.Info("contact sheet written",
		"output", report.Output,
		"grid", fmt.Sprintf("%dx%d", layout.Columns, layout.Rows),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func (c *Controller) selectVideo(ctx context.Context) (VideoFile, error) {
	if c.cfg.Video != "" {
		info, err := os.Stat(c.cfg.Video)
		if err != nil {
			return VideoFile{}, fmt.Errorf("%w: %w", ErrNoVideoFound, err)
		}
		if !info.Mode().IsRegular() {
			return VideoFile{}, fmt.Errorf("%w: %s is not a regular file", ErrNoVideoFound, c.cfg.Video)
		}
		c.transition(StateSelecting)
		return newVideoFile(c.cfg.Video), nil
	}

	videos, err := c.Discover()
	if err != nil {
		return VideoFile{}, err
	}
	c.logger.Debug("discovered", "dir", c.cfg.Dir, "count", len(videos))

	c.transition(StateSelecting)
	if len(videos) == 1 {
		c.logger.Info("found one video", "video", videos[0].Name)
		return videos[0], nil
	}

	n, err := c.selector.ChooseVideo(ctx, videos)
	if err != nil {
		return VideoFile{}, err
	}
	if n < 1 || n > len(videos) {
		return VideoFile{}, fmt.Errorf("%w: %d is not between 1 and %d", ErrInvalidSelection, n, len(videos))
	}
	return videos[n-1], nil
}

func (c *Controller) interval(ctx context.Context) (float64, error) {
	interval := c.cfg.Interval
	if !c.cfg.IntervalSet {
		def := interval
		if def <= 0 {
			def = DefaultInterval
		}
		var err error
		if interval, err = c.selector.ChooseInterval(ctx, def); err != nil {
			return 0, err
		}
	}
	if err := planner.ValidateInterval(interval); err != nil {
		return 0, err
	}
	return interval, nil
}

func (c *Controller) outputPath(v VideoFile) string {
	if c.cfg.Output != "" {
		return c.cfg.Output
	}
	return filepath.Join(c.cfg.OutDir, v.SheetName())
}
