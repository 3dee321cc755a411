package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/koki-develop/vidsheet/internal/ascii"
	"github.com/koki-develop/vidsheet/internal/resize"
	"github.com/koki-develop/vidsheet/internal/term"
)

// preview prints the image at path as ASCII art at most width columns wide.
func preview(w io.Writer, path string, width int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for preview: %w", path, err)
	}

	img = resize.NewResizer().Fit(img, width, width)
	rows := ascii.NewConverter(term.IsTerminal(w)).ImageToASCII(img)

	_, err = fmt.Fprintln(w, strings.Join(rows, "\n"))
	return err
}
