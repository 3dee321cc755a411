// Package term reports whether a stream is attached to a terminal.
package term

import "github.com/mattn/go-isatty"

// IsTerminal reports whether v is a file descriptor backed by a terminal.
// Readers and writers without an Fd method never are.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
