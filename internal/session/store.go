package session

import (
	"context"
	"errors"
	"time"

	"quantumsport/internal/cart"
)

var (
	ErrNotFound  = errors.New("booking session not found")
	ErrForbidden = errors.New("booking session belongs to another customer")
	// ErrBusy means concurrent writers kept invalidating an update; the caller may retry.
	ErrBusy               = errors.New("booking session is busy")
	ErrCheckoutInProgress = errors.New("booking session is already being checked out")
)

// Session is one customer's booking session and the Selection Set it owns.
type Session struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Cart       *cart.Cart `json:"cart"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	// CheckoutStartedAt is set while a checkout of this session is being submitted.
	CheckoutStartedAt *time.Time `json:"checkout_started_at,omitempty"`
}

func (s *Session) clone() *Session {
	out := *s
	if s.Cart != nil {
		out.Cart = s.Cart.Clone()
	} else {
		out.Cart = cart.New()
	}
	return &out
}

// Store persists sessions. Save replaces the whole session so readers never observe a
// partially applied mutation.
//
// Update applies fn to a copy of the stored session and writes it back with a fresh ttl. It is
// atomic against other Updates of the same id, across processes for shared stores. When fn
// fails nothing is written and its error is returned unchanged.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Update(ctx context.Context, id string, ttl time.Duration, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}
