package export

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// Writer saves rendered reports to a filesystem.
// It uses an afero.Fs so tests can write to memory.
type Writer struct {
	fs afero.Fs
}

// NewWriter creates a Writer on fs.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// NewOsWriter creates a Writer on the real filesystem.
func NewOsWriter() *Writer {
	return NewWriter(afero.NewOsFs())
}

// WriteFile renders r and writes it to path, creating parent directories.
// An empty format is inferred from the file extension. Text files are
// always written unstyled.
func (w *Writer) WriteFile(path string, format Format, r *audit.Report) error {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		format = f
	}

	var buf bytes.Buffer
	if err := Render(&buf, format, r, false); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(w.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s report to %s: %w", format, path, err)
	}
	return nil
}
