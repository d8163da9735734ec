package logger

import (
	"io"
	"log/slog"
)

// Setup installs a text slog handler on w as the process default and
// returns it. Verbose runs log at Debug; otherwise only warnings and errors
// reach the terminal so they don't interleave with report output.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}
