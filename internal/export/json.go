package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// JSON writes r as two-space indented UTF-8 JSON. Characters such as <, >
// and & are written as-is.
func JSON(w io.Writer, r *audit.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}
