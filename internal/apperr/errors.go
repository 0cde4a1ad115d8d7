// Package apperr holds the failure taxonomy shared by the upstream client and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTimeout         = errors.New("timeout error")
	ErrNetwork         = errors.New("network error")
	ErrNotFound        = errors.New("not found")
	ErrSlotUnavailable = errors.New("slot no longer available")
	ErrInvalidResponse = errors.New("invalid upstream response")
)

func NewTimeoutError(details string) error {
	return fmt.Errorf("%w: %s", ErrTimeout, details)
}

func NewNetworkError(details string) error {
	return fmt.Errorf("%w: %s", ErrNetwork, details)
}

// IsRetriable reports whether repeating the same request may succeed.
func IsRetriable(err error) bool {
	return err != nil && (errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork))
}

// ConflictError reports slots that became unavailable between fetch and submit.
type ConflictError struct {
	Message string
	SlotIDs []string
}

func (e *ConflictError) Error() string {
	if len(e.SlotIDs) == 0 {
		return fmt.Sprintf("%s: %s", ErrSlotUnavailable, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrSlotUnavailable, e.Message, strings.Join(e.SlotIDs, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSlotUnavailable
}

// ValidationError is a request the upstream API refused as invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}
