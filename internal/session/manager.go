package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"quantumsport/internal/cart"
)

const lockStripes = 64

// CheckoutHold bounds how long one checkout keeps a session reserved. A submission that never
// finished, for example because the process died, stops blocking new checkouts after it.
const CheckoutHold = 2 * time.Minute

// Manager owns booking-session lifecycle. Writes to one session are applied one at a time:
// stripe locks order them within the process and Store.Update makes each write atomic.
type Manager struct {
	store Store
	ttl   time.Duration
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Manager) Create(ctx context.Context, customerID string) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Cart:       cart.New(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}
	s.Cart.UpdatedAt = now

	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id, customerID string) (*Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return s, nil
}

// Mutate applies fn to a copy of the session's cart and stores the result. When fn fails
// nothing is written and the stored cart stays as it was.
func (m *Manager) Mutate(ctx context.Context, id, customerID string, fn func(*cart.Cart) error) (*Session, error) {
	return m.update(ctx, id, customerID, func(s *Session, now time.Time) error {
		if err := fn(s.Cart); err != nil {
			return err
		}
		s.Cart.UpdatedAt = now
		return nil
	})
}

func (m *Manager) Clear(ctx context.Context, id, customerID string) (*Session, error) {
	return m.Mutate(ctx, id, customerID, func(c *cart.Cart) error {
		c.ClearAll()
		return nil
	})
}

// BeginCheckout reserves the session for one checkout and returns the cart to submit. The
// cart stays editable while the reservation is held.
func (m *Manager) BeginCheckout(ctx context.Context, id, customerID string) (*Session, error) {
	return m.update(ctx, id, customerID, func(s *Session, now time.Time) error {
		if s.CheckoutStartedAt != nil && now.Sub(*s.CheckoutStartedAt) < CheckoutHold {
			return ErrCheckoutInProgress
		}
		s.CheckoutStartedAt = &now
		return nil
	})
}

// FinishCheckout releases the reservation. When submitted is non-nil its lines are removed
// from the cart; anything selected or changed since BeginCheckout stays.
func (m *Manager) FinishCheckout(ctx context.Context, id, customerID string, submitted *cart.Cart) (*Session, error) {
	return m.update(ctx, id, customerID, func(s *Session, now time.Time) error {
		s.CheckoutStartedAt = nil
		if submitted != nil {
			s.Cart.RemoveSubmitted(submitted)
			s.Cart.UpdatedAt = now
		}
		return nil
	})
}

func (m *Manager) update(ctx context.Context, id, customerID string, fn func(*Session, time.Time) error) (*Session, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return m.store.Update(ctx, id, m.ttl, func(s *Session) error {
		if s.CustomerID != customerID {
			return ErrForbidden
		}
		now := m.now()
		if err := fn(s, now); err != nil {
			return err
		}
		s.ExpiresAt = now.Add(m.ttl)
		return nil
	})
}

func (m *Manager) Delete(ctx context.Context, id, customerID string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := m.Get(ctx, id, customerID); err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}
