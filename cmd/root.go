package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/koki-develop/vidsheet/internal/config"
	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/koki-develop/vidsheet/internal/frames"
	"github.com/koki-develop/vidsheet/internal/grid"
	"github.com/koki-develop/vidsheet/internal/prompt"
	"github.com/koki-develop/vidsheet/internal/session"
	"github.com/koki-develop/vidsheet/internal/term"
	"github.com/koki-develop/vidsheet/internal/ui"
	"github.com/spf13/cobra"
)

var errColor = color.New(color.FgRed, color.Bold)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load(ctx)
	if err == nil {
		err = newRootCmd(cfg).ExecuteContext(ctx)
	}
	stop()
	if err != nil {
		errColor.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		noLabels bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "vidsheet [video]",
		Short: "Build a contact sheet of frames sampled from a video",
		Long: `vidsheet takes a frame every --interval seconds from a video and lays them
out on a single JPEG grid. Without a video argument it scans --dir and asks
which video to use when there is more than one.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.IntervalSet = cfg.IntervalSet || cmd.Flags().Changed("interval")
			cfg.Labels = !noLabels
			if verbose {
				cfg.LogLevel = "debug"
			}
			var video string
			if len(args) > 0 {
				video = args[0]
			}
			return run(cmd, cfg, video)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.Dir, "dir", "d", cfg.Dir, "directory to scan for videos")
	f.Float64VarP(&cfg.Interval, "interval", "i", cfg.Interval, "seconds between frames (asked for when not given)")
	f.Float64Var(&cfg.Offset, "offset", cfg.Offset, "timestamp of the first frame in seconds")
	f.IntVarP(&cfg.Columns, "columns", "c", cfg.Columns, "number of grid columns")
	f.IntVarP(&cfg.Height, "height", "H", cfg.Height, "thumbnail height in pixels")
	f.StringSliceVarP(&cfg.Extensions, "ext", "e", cfg.Extensions, "video file extensions to look for")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "output file (default <name>_contact_sheet.jpg in --out-dir)")
	f.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "output directory")
	f.StringVar(&cfg.OnError, "on-error", cfg.OnError, `what a failed frame does: "skip" leaves a blank cell, "abort" stops`)
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for each ffmpeg/ffprobe call")
	f.IntVar(&cfg.Quality, "quality", cfg.Quality, "JPEG quality (1-100)")
	f.BoolVar(&noLabels, "no-labels", !cfg.Labels, "do not print timestamps on thumbnails")
	f.BoolVarP(&cfg.NonInteractive, "non-interactive", "n", cfg.NonInteractive, "never prompt")
	f.BoolVar(&cfg.Preview, "preview", cfg.Preview, "print the finished sheet as ASCII art")
	f.IntVar(&cfg.PreviewWidth, "preview-width", cfg.PreviewWidth, "width of the preview in columns")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, video string) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := cfg.NewLogger(stderr)
	logger.Debug("config", "config", cfg.String())

	policy, err := frames.ParsePolicy(cfg.OnError)
	if err != nil {
		return err
	}

	backend, err := ffmpeg.New(ffmpeg.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Timeout:     cfg.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	sc := session.DefaultConfig()
	sc.Dir = cfg.Dir
	sc.Video = video
	sc.Extensions = cfg.Extensions
	sc.Interval = cfg.Interval
	sc.IntervalSet = cfg.IntervalSet
	sc.Offset = cfg.Offset
	sc.Output = cfg.Output
	sc.OutDir = cfg.OutDir
	sc.TempDir = cfg.TempDir
	sc.Policy = policy
	sc.Grid.Columns = cfg.Columns
	sc.Grid.Height = cfg.Height
	sc.Grid.Padding = cfg.Padding
	sc.Grid.Margin = cfg.Margin
	sc.Grid.Quality = cfg.Quality
	sc.Grid.Labels = cfg.Labels
	if term.IsTerminal(stderr) {
		sc.Progress = stderr
	}

	report, err := session.New(sc, backend, newSelector(cmd, cfg), logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	printReport(stdout, report)
	if cfg.Preview {
		return preview(stdout, report.Output, cfg.PreviewWidth)
	}
	return nil
}

func newSelector(cmd *cobra.Command, cfg *config.Config) session.Selector {
	if cfg.NonInteractive {
		return prompt.Fixed{}
	}
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	if term.IsTerminal(in) && term.IsTerminal(out) {
		return ui.NewPicker(tea.WithInput(in), tea.WithOutput(out))
	}
	return prompt.NewConsole(in, out)
}

func printReport(w io.Writer, r *session.Report) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	green.Fprintf(w, "Contact sheet saved: %s\n", r.Output)
	fmt.Fprintf(w, "  video:    %s (%s)\n", r.Video.Name, grid.FormatLabel(r.Duration))
	fmt.Fprintf(w, "  frames:   %d every %gs\n", r.Extracted, r.Interval)
	fmt.Fprintf(w, "  grid:     %dx%d, %dx%d px\n", r.Layout.Columns, r.Layout.Rows, r.Layout.Width, r.Layout.Height)
	for _, f := range r.Skipped {
		yellow.Fprintf(w, "  skipped:  frame %d at %s: %v\n", f.Index+1, grid.FormatLabel(f.Timestamp), f.Err)
	}
}
