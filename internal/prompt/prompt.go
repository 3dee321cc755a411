// Package prompt asks the user for a video and an interval on a plain line-based console.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/koki-develop/vidsheet/internal/session"
)

var (
	ErrCanceled       = errors.New("operation canceled by user")
	ErrNonInteractive = errors.New("a choice is required but prompting is disabled")
)

var (
	_ session.Selector = (*Console)(nil)
	_ session.Selector = Fixed{}
)

var (
	indexColor = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
)

// Console reads answers line by line. Unparsable answers are asked again.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) ChooseVideo(ctx context.Context, videos []session.VideoFile) (int, error) {
	fmt.Fprintln(c.out, "Found multiple video files:")
	for i, v := range videos {
		fmt.Fprintf(c.out, "  %s %s\n", indexColor.Sprintf("%d:", i+1), v.Name)
	}

	question := fmt.Sprintf("Enter the number of the video file to process (1-%d): ", len(videos))
	for {
		line, err := c.ask(ctx, question)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			warnColor.Fprintln(c.out, "Invalid input. Please enter a number.")
			continue
		}
		if n < 1 || n > len(videos) {
			warnColor.Fprintln(c.out, "Invalid choice. Please enter a number from the list.")
			continue
		}
		return n, nil
	}
}

// ChooseInterval returns def on an empty answer. Range checks are left to the caller.
func (c *Console) ChooseInterval(ctx context.Context, def float64) (float64, error) {
	question := fmt.Sprintf("Interval in seconds between frames [%s]: ", strconv.FormatFloat(def, 'f', -1, 64))
	for {
		line, err := c.ask(ctx, question)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			warnColor.Fprintln(c.out, "Invalid input. Please enter a number of seconds.")
			continue
		}
		return v, nil
	}
}

func (c *Console) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, question)

	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		fmt.Fprintln(c.out)
		if errors.Is(err, io.EOF) {
			return "", ErrCanceled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Fixed never prompts. It fails when a video has to be chosen and keeps the default interval.
type Fixed struct{}

func (Fixed) ChooseVideo(_ context.Context, videos []session.VideoFile) (int, error) {
	return 0, fmt.Errorf("%w: %d video files found, pass one as an argument", ErrNonInteractive, len(videos))
}

func (Fixed) ChooseInterval(_ context.Context, def float64) (float64, error) {
	return def, nil
}
