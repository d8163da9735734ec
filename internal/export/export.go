// Package export renders audit reports for people and machines: JSON and
// YAML for pipelines, PDF for sharing, styled text for the terminal.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatPDF}

// ParseFormat accepts a format name case-insensitively. "yml" and "txt" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, yaml or pdf)", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %q: no file extension", path)
	}
	return ParseFormat(ext)
}

// Render writes r to w in the given format. styled only affects text output.
func Render(w io.Writer, format Format, r *audit.Report, styled bool) error {
	switch format {
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	case FormatPDF:
		return PDF(w, r)
	case FormatText:
		return Text(w, r, styled)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
