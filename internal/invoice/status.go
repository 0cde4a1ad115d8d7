package invoice

import (
	"errors"
	"fmt"
	"strings"

	"quantumsport/internal/apperr"
)

var (
	// ErrNotFound also matches apperr.ErrNotFound.
	ErrNotFound         = fmt.Errorf("invoice %w", apperr.ErrNotFound)
	ErrUnknownStatus    = errors.New("unknown invoice status")
	ErrUnknownDetail    = errors.New("unknown booking detail type")
	ErrMalformedDetail  = errors.New("malformed booking detail")
	ErrMalformedInvoice = errors.New("malformed invoice")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusHold      Status = "HOLD"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusHold, StatusPaid, StatusFailed, StatusExpired, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// IsTerminal reports whether no further payment action can change the invoice.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
