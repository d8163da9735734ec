package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled regexes for JSON repair (compiled once, used many times)
// NOTE: These handle common LLM output errors but have limitations:
// - Escaped quotes within single-quoted strings are not fully supported
// - Complex nested structures may not be repaired correctly
var (
	// Fix missing comma after value before new key: "value" "key" -> "value", "key"
	// Only match when followed by a key pattern (word + colon)
	missingCommaBeforeKeyRegex = regexp.MustCompile(`(")\s*\n\s*("[\w][^"]*"\s*:)`)

	// Fix missing comma after number/bool/null before quote (new key)
	missingCommaAfterValueRegex = regexp.MustCompile(`(\d|true|false|null)\s*\n\s*("[\w][^"]*"\s*:)`)

	// Fix missing comma between sibling objects in an array: } { -> }, {
	missingCommaBetweenObjectsRegex = regexp.MustCompile(`}\s*\n\s*{`)

	// Fix trailing commas before closing brace/bracket
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	// Fix single quotes for object keys: {'key': -> {"key":
	singleQuoteKeyRegex = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)

	// Fix single quotes for string values after colon: : 'value' -> : "value"
	singleQuoteValueRegex = regexp.MustCompile(`(:\s*)'((?:[^'\\]|\\.)*)'(\s*[,}\]])`)

	// Fix unquoted enum values: {"severity": High} -> {"severity": "High"}
	// Only matches simple identifiers; true, false and null are left alone.
	unquotedValueRegex = regexp.MustCompile(`(:\s*)([a-zA-Z][a-zA-Z0-9_-]*)(\s*[,}\]])`)
)

// StripCodeFences removes a surrounding markdown code fence (```json ... ```)
// and trims whitespace.
func StripCodeFences(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")

	return strings.TrimSpace(response)
}

// RepairJSON attempts to fix common JSON syntax errors from LLMs.
// Handles: control characters and invalid escapes inside strings, missing
// commas, trailing commas, single quotes for keys and values.
// The result is not guaranteed to be valid JSON.
func RepairJSON(input string) string {
	result := sanitizeControlChars(input)

	result = missingCommaBeforeKeyRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterValueRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaBetweenObjectsRegex.ReplaceAllString(result, "},\n{")
	result = trailingCommaRegex.ReplaceAllString(result, `$1`)
	result = singleQuoteKeyRegex.ReplaceAllString(result, `$1"$2"$3`)

	result = singleQuoteValueRegex.ReplaceAllStringFunc(result, func(match string) string {
		parts := singleQuoteValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		value := parts[2]
		value = strings.ReplaceAll(value, `\'`, `'`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return parts[1] + `"` + value + `"` + parts[3]
	})

	return result
}

// QuoteBareValues quotes identifier values left unquoted after a colon.
// It can also rewrite prose inside string values that happens to look like
// "key: word,", so callers run it only after RepairJSON alone has failed.
func QuoteBareValues(input string) string {
	return unquotedValueRegex.ReplaceAllStringFunc(input, func(match string) string {
		parts := unquotedValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		switch parts[2] {
		case "true", "false", "null":
			return match
		}
		return parts[1] + `"` + parts[2] + `"` + parts[3]
	})
}

// sanitizeControlChars escapes literal control characters inside JSON strings
// and doubles backslashes that do not start a valid JSON escape.
// LLMs often output raw tabs, newlines, and regex or Windows-path escapes.
func sanitizeControlChars(input string) string {
	var result strings.Builder
	result.Grow(len(input))

	inString := false

	for i := 0; i < len(input); i++ {
		c := input[i]

		if c == '\\' && inString {
			if i+1 < len(input) && isJSONEscape(input[i+1]) {
				result.WriteByte(c)
				result.WriteByte(input[i+1])
				i++
				continue
			}
			result.WriteString(`\\`)
			continue
		}

		if c == '"' {
			inString = !inString
			result.WriteByte(c)
			continue
		}

		if !inString {
			result.WriteByte(c)
			continue
		}

		switch c {
		case '\t':
			result.WriteString(`\t`)
		case '\n':
			result.WriteString(`\n`)
		case '\r':
			result.WriteString(`\r`)
		case '\b':
			result.WriteString(`\b`)
		case '\f':
			result.WriteString(`\f`)
		default:
			if c < 0x20 {
				result.WriteString(fmt.Sprintf(`\u%04x`, c))
			} else {
				result.WriteByte(c)
			}
		}
	}

	return result.String()
}

func isJSONEscape(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}
