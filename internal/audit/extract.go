package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

var errNotObject = errors.New("top-level JSON value is not an object")

// ExtractJSON locates and parses the JSON object in raw model output.
//
// The trimmed text is parsed directly first. If that fails, the span from the
// first '{' to the last '}' is parsed, then parsed again after LLM syntax
// repair. Only that single span is tried: output holding several separate
// JSON fragments fails rather than being searched fragment by fragment.
func ExtractJSON(raw string) (Node, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Node{}, &MalformedResponseError{Err: errors.New("empty response"), Raw: raw}
	}

	n, err := parseObject(text)
	if err == nil {
		return n, nil
	}
	lastErr := err

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Node{}, &MalformedResponseError{
			Err: fmt.Errorf("no JSON object found: %w", lastErr),
			Raw: raw,
		}
	}
	span := text[start : end+1]

	n, err = parseObject(span)
	if err == nil {
		return n, nil
	}
	lastErr = err

	repaired := utils.RepairJSON(span)
	if n, err := parseObject(repaired); err == nil {
		return n, nil
	}
	if n, err := parseObject(utils.QuoteBareValues(repaired)); err == nil {
		return n, nil
	}

	return Node{}, &MalformedResponseError{Err: lastErr, Raw: raw}
}

func parseObject(s string) (Node, error) {
	n, err := ParseNode([]byte(s))
	if err != nil {
		return Node{}, err
	}
	if n.Kind != KindObject {
		return Node{}, errNotObject
	}
	return n, nil
}
