package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// exit is replaced in tests.
var exit = os.Exit

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		// In verbose mode, print the detailed, underlying technical error.
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		// By default, print the clean, user-friendly message.
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// userMessage turns a command error into the line shown without --verbose.
func userMessage(err error) string {
	var cfgErr *audit.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Configuration problem with %s: %s", cfgErr.Key, cfgErr.Reason)
	case errors.Is(err, audit.ErrEmptyRequirement):
		return "Nothing to audit: the requirement text is empty."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out waiting for the model. Raise llm.requestTimeoutSeconds or try again."
	default:
		return "Error: " + err.Error()
	}
}
