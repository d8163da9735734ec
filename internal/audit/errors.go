package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

// ErrEmptyRequirement marks an audit that was short-circuited because the
// requirement text was empty or whitespace.
var ErrEmptyRequirement = errors.New("requirement text is empty")

// ConfigurationError reports a missing or invalid setting, such as an absent
// API key. It is fatal: nothing retries it.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// MalformedResponseError reports model output that did not contain a JSON
// object.
type MalformedResponseError struct {
	Err error
	Raw string
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return "malformed model response"
	}
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SchemaViolationError reports required top-level keys missing from a parsed
// response. Only the strict audit variant surfaces it.
type SchemaViolationError struct {
	Missing []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("missing keys in report: [%s]", strings.Join(e.Missing, ", "))
}

// TransportError wraps a failure calling the model backend, including
// timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// errorKind names an attempt error for log lines and retry reminders.
func errorKind(err error) string {
	var (
		malformed *MalformedResponseError
		schema    *SchemaViolationError
		transport *TransportError
	)
	switch {
	case errors.As(err, &malformed):
		return "JSON Parse Error"
	case errors.As(err, &schema):
		return "Schema Violation"
	case errors.As(err, &transport):
		return "Transport Error"
	default:
		return "Error"
	}
}

// diagnostic renders the in-report message for an exhausted audit.
func diagnostic(attempts int, err error) string {
	msg := "unknown error"
	if err != nil {
		msg = utils.Truncate(err.Error(), 300)
	}
	if attempts == 0 {
		return "Audit cancelled before the model was called: " + msg
	}
	return fmt.Sprintf("Audit failed after %d attempt(s): %s", attempts, msg)
}
