// Package grid composes extracted frames into a single contact sheet image.
package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/koki-develop/vidsheet/internal/resize"
)

var ErrComposition = errors.New("composition failed")

const (
	// MaxSide is the largest width or height a JPEG can hold.
	MaxSide = 65535
	// MaxPixels caps the canvas allocation (1 GiB of NRGBA).
	MaxPixels = 1 << 28
)

// Cell is one grid position. An empty Path leaves the cell blank.
type Cell struct {
	Path  string
	Label string
}

type Options struct {
	Columns int
	// Height is the thumbnail height in pixels. Zero keeps the source height.
	Height  int
	Padding int
	Margin  int
	Quality int
	Labels  bool

	Background color.Color
}

func DefaultOptions() Options {
	return Options{
		Columns:    5,
		Height:     250,
		Padding:    10,
		Margin:     10,
		Quality:    90,
		Labels:     true,
		Background: color.Black,
	}
}

// Layout describes a composed sheet.
type Layout struct {
	Columns int
	Rows    int
	// Blank counts the cells padding out the final row.
	Blank int
	// Skipped counts cells with no frame.
	Skipped int

	CellWidth  int
	CellHeight int
	Width      int
	Height     int
}

// Arrange returns the row count and number of padding cells for n cells in columns.
func Arrange(n, columns int) (rows, blank int) {
	if n <= 0 || columns <= 0 {
		return 0, 0
	}
	rows = (n + columns - 1) / columns
	return rows, rows*columns - n
}

type Composer struct {
	opts    Options
	resizer *resize.Resizer
	logger  *slog.Logger
}

func NewComposer(opts Options, logger *slog.Logger) *Composer {
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultOptions().Quality
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		opts:    opts,
		resizer: resize.NewResizer(),
		logger:  logger.With("component", "grid"),
	}
}

// Compose lays cells out left-to-right, top-to-bottom and writes the sheet to dst as
// JPEG. dst is replaced atomically; on error it is left untouched.
func (c *Composer) Compose(cells []Cell, dst string) (*Layout, error) {
	if err := c.checkOptions(); err != nil {
		return nil, err
	}

	thumbs, skipped, err := c.load(cells)
	if err != nil {
		return nil, err
	}

	rows, blank := Arrange(len(cells), c.opts.Columns)
	l := &Layout{
		Columns: c.opts.Columns,
		Rows:    rows,
		Blank:   blank,
		Skipped: skipped,
	}
	for _, th := range thumbs {
		if th != nil {
			l.CellWidth, l.CellHeight = th.Bounds().Dx(), th.Bounds().Dy()
			break
		}
	}
	l.Width = 2*c.opts.Margin + l.Columns*l.CellWidth + (l.Columns-1)*c.opts.Padding
	l.Height = 2*c.opts.Margin + l.Rows*l.CellHeight + (l.Rows-1)*c.opts.Padding

	if l.Width > MaxSide || l.Height > MaxSide || l.Width*l.Height > MaxPixels {
		return nil, fmt.Errorf("%w: sheet of %dx%d px is too large", ErrComposition, l.Width, l.Height)
	}

	canvas := imaging.New(l.Width, l.Height, c.opts.Background)
	for i, th := range thumbs {
		if th == nil {
			continue
		}
		x := c.opts.Margin + (i%l.Columns)*(l.CellWidth+c.opts.Padding)
		y := c.opts.Margin + (i/l.Columns)*(l.CellHeight+c.opts.Padding)
		r := image.Rect(x, y, x+l.CellWidth, y+l.CellHeight)
		draw.Draw(canvas, r, th, th.Bounds().Min, draw.Src)

		if c.opts.Labels && cells[i].Label != "" {
			drawLabel(canvas, image.Pt(x, y), cells[i].Label)
		}
	}

	if err := c.save(canvas, dst); err != nil {
		return nil, err
	}

	c.logger.Debug("composed",
		"output", dst,
		"columns", l.Columns,
		"rows", l.Rows,
		"blank", l.Blank,
		"skipped", l.Skipped,
	)
	return l, nil
}

func (c *Composer) checkOptions() error {
	switch {
	case c.opts.Columns <= 0 || c.opts.Columns > MaxSide:
		return fmt.Errorf("%w: columns must be between 1 and %d, got %d", ErrComposition, MaxSide, c.opts.Columns)
	case c.opts.Height < 0 || c.opts.Height > MaxSide:
		return fmt.Errorf("%w: height must be between 0 and %d, got %d", ErrComposition, MaxSide, c.opts.Height)
	case c.opts.Padding < 0 || c.opts.Padding > MaxSide:
		return fmt.Errorf("%w: padding must be between 0 and %d, got %d", ErrComposition, MaxSide, c.opts.Padding)
	case c.opts.Margin < 0 || c.opts.Margin > MaxSide:
		return fmt.Errorf("%w: margin must be between 0 and %d, got %d", ErrComposition, MaxSide, c.opts.Margin)
	}
	return nil
}

// load decodes and scales every non-blank cell. Blank cells stay nil.
func (c *Composer) load(cells []Cell) ([]image.Image, int, error) {
	thumbs := make([]image.Image, len(cells))
	var size image.Point
	skipped := 0

	for i, cell := range cells {
		if cell.Path == "" {
			skipped++
			continue
		}

		img, err := imaging.Open(cell.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: failed to decode %s: %w", ErrComposition, filepath.Base(cell.Path), err)
		}

		got := img.Bounds().Size()
		if size == (image.Point{}) {
			size = got
		} else if got != size {
			return nil, 0, fmt.Errorf("%w: inconsistent frame size: %s is %dx%d, expected %dx%d",
				ErrComposition, filepath.Base(cell.Path), got.X, got.Y, size.X, size.Y)
		}

		if c.opts.Height > 0 {
			img = c.resizer.ToHeight(img, c.opts.Height)
		}
		thumbs[i] = img
	}

	if skipped == len(cells) {
		return nil, 0, fmt.Errorf("%w: no frames to compose", ErrComposition)
	}
	return thumbs, skipped, nil
}

func (c *Composer) save(img image.Image, dst string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", ErrComposition, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrComposition, err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(c.opts.Quality)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to encode jpeg: %w", ErrComposition, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrComposition, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("%w: %w", ErrComposition, err)
	}
	return nil
}
