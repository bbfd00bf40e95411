package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks failures caused by a document that no longer exists.
	// These are logged and never retried.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks failures caused by missing or malformed stage input.
	ErrValidation = errors.New("validation error")
	// ErrExternalService marks failures of an external collaborator call.
	ErrExternalService = errors.New("external service error")
	// ErrConfiguration marks failures caused by invalid runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures expected to succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotFound reports whether err carries the ErrNotFound marker.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

const maxErrorMessageLength = 1000

// SanitizeErrorMessage normalizes a failure reason for persistence: blank
// reasons become "unknown error" and overly long ones are truncated.
func SanitizeErrorMessage(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "unknown error"
	}
	if len(reason) > maxErrorMessageLength {
		return reason[:maxErrorMessageLength]
	}
	return reason
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
