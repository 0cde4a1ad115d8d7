package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quantumsport/internal/cart"
	"quantumsport/internal/session"
)

func newTestService(t *testing.T) (Service, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour)
	return NewService(mgr, cart.DefaultTaxRateBps), mgr
}

func courtA(hhmm string) ToggleBookingRequest {
	return ToggleBookingRequest{ResourceID: "A", ResourceName: "Court A", Time: hhmm, Date: "2025-01-20", Price: 100000}
}

func TestService_CreateSession(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateSession(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "cust-1", resp.CustomerID)
	assert.Empty(t, resp.Cart.Bookings)
	assert.Equal(t, int64(0), resp.Cart.Totals.GrandTotal)
}

func TestService_ToggleBooking(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "cust-1")
	require.NoError(t, err)

	resp, err := svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("08:00"))
	require.NoError(t, err)
	require.NotNil(t, resp.Selected)
	assert.True(t, *resp.Selected)
	require.Len(t, resp.Cart.Bookings, 1)
	assert.Equal(t, int64(100000), resp.Cart.Totals.CourtSubtotal)
	assert.Equal(t, int64(10000), resp.Cart.Totals.Tax)

	resp, err = svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("08:00"))
	require.NoError(t, err)
	assert.False(t, *resp.Selected)
	assert.Empty(t, resp.Cart.Bookings)
}

func TestService_ToggleBooking_Malformed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "cust-1")

	_, err := svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("8 o'clock"))
	assert.ErrorIs(t, err, cart.ErrMalformedKey)
}

func TestService_RemoveBooking(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "cust-1")

	_, err := svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("08:00"))
	require.NoError(t, err)
	_, err = svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("09:00"))
	require.NoError(t, err)

	resp, err := svc.RemoveBooking(ctx, sess.ID, "cust-1", cart.BookingKey{ResourceID: "A", Time: "08:00:00", Date: "2025-01-20"})
	require.NoError(t, err)
	require.Len(t, resp.Cart.Bookings, 1)
	assert.Equal(t, "09:00", resp.Cart.Bookings[0].Items[0].Time)

	resp, err = svc.RemoveBooking(ctx, sess.ID, "cust-1", cart.BookingKey{ResourceID: "Z", Time: "08:00", Date: "2025-01-20"})
	require.NoError(t, err)
	assert.Len(t, resp.Cart.Bookings, 1)

	_, err = svc.RemoveBooking(ctx, sess.ID, "cust-1", cart.BookingKey{ResourceID: "A", Time: "noon", Date: "2025-01-20"})
	assert.ErrorIs(t, err, cart.ErrMalformedKey)
}

func TestService_AddOnsRequireCourt(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "cust-1")

	_, err := svc.ToggleCoach(ctx, sess.ID, "cust-1", ToggleCoachRequest{ResourceID: "coach-1", Name: "Rina", TimeSlot: "08:00", Price: 250000})
	assert.ErrorIs(t, err, cart.ErrAddOnRequiresCourt)

	_, err = svc.SetInventory(ctx, sess.ID, "cust-1", SetInventoryRequest{ResourceID: "racket", Quantity: 1, Available: 5, UnitPrice: 50000})
	assert.ErrorIs(t, err, cart.ErrAddOnRequiresCourt)

	stored, err := mgr.Get(ctx, sess.ID, "cust-1")
	require.NoError(t, err)
	assert.True(t, stored.Cart.IsEmpty())
}

func TestService_CoachAndInventory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "cust-1")

	_, err := svc.ToggleBooking(ctx, sess.ID, "cust-1", courtA("08:00"))
	require.NoError(t, err)
	_, err = svc.ToggleBooking(ctx, sess.ID, "cust-1", ToggleBookingRequest{ResourceID: "B", Time: "09:00", Date: "2025-01-20", Price: 150000})
	require.NoError(t, err)

	resp, err := svc.ToggleCoach(ctx, sess.ID, "cust-1", ToggleCoachRequest{ResourceID: "coach-1", Name: "Rina", TimeSlot: "08:00", Price: 250000})
	require.NoError(t, err)
	assert.True(t, *resp.Selected)

	resp, err = svc.SetInventory(ctx, sess.ID, "cust-1", SetInventoryRequest{ResourceID: "racket", Name: "Racket", Quantity: 9, Available: 2, UnitPrice: 50000})
	require.NoError(t, err)
	require.NotNil(t, resp.Quantity)
	assert.Equal(t, 2, *resp.Quantity)

	totals := resp.Cart.Totals
	assert.Equal(t, int64(250000), totals.CourtSubtotal)
	assert.Equal(t, int64(250000), totals.CoachSubtotal)
	assert.Equal(t, int64(100000), totals.InventorySubtotal)
	assert.Equal(t, int64(600000), totals.Subtotal)
	assert.Equal(t, int64(60000), totals.Tax)
	assert.Equal(t, int64(660000), totals.GrandTotal)
	require.Len(t, resp.Cart.Inventory, 1)
	assert.Equal(t, cart.DefaultTimeSlot, resp.Cart.Inventory[0].TimeSlot)

	resp, err = svc.SetInventory(ctx, sess.ID, "cust-1", SetInventoryRequest{ResourceID: "racket", Quantity: 0, Available: 2, UnitPrice: 50000})
	require.NoError(t, err)
	assert.Equal(t, 0, *resp.Quantity)
	assert.Empty(t, resp.Cart.Inventory)

	resp, err = svc.Clear(ctx, sess.ID, "cust-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Cart.Bookings)
	assert.Empty(t, resp.Cart.Coaches)
	assert.Equal(t, int64(0), resp.Cart.Totals.GrandTotal)
}

func TestService_OtherCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "cust-1")

	_, err := svc.Cart(ctx, sess.ID, "cust-2")
	assert.ErrorIs(t, err, session.ErrForbidden)

	_, err = svc.ToggleBooking(ctx, sess.ID, "cust-2", courtA("08:00"))
	assert.ErrorIs(t, err, session.ErrForbidden)

	assert.ErrorIs(t, svc.EndSession(ctx, sess.ID, "cust-2"), session.ErrForbidden)
	require.NoError(t, svc.EndSession(ctx, sess.ID, "cust-1"))

	_, err = svc.Cart(ctx, sess.ID, "cust-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

type MockSessions struct{ mock.Mock }

func (m *MockSessions) Create(ctx context.Context, customerID string) (*session.Session, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Get(ctx context.Context, id, customerID string) (*session.Session, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Mutate(ctx context.Context, id, customerID string, fn func(*cart.Cart) error) (*session.Session, error) {
	args := m.Called(ctx, id, customerID, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Clear(ctx context.Context, id, customerID string) (*session.Session, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Delete(ctx context.Context, id, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

func TestService_StoreFailure(t *testing.T) {
	sessions := new(MockSessions)
	storeErr := errors.New("redis: connection refused")
	sessions.On("Create", mock.Anything, "cust-1").Return(nil, storeErr)
	sessions.On("Mutate", mock.Anything, "s1", "cust-1", mock.Anything).Return(nil, storeErr)

	svc := NewService(sessions, cart.DefaultTaxRateBps)

	_, err := svc.CreateSession(context.Background(), "cust-1")
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.ToggleBooking(context.Background(), "s1", "cust-1", courtA("08:00"))
	assert.ErrorIs(t, err, storeErr)

	sessions.AssertExpectations(t)
}

func TestMutationResult(t *testing.T) {
	assert.Equal(t, "ok", mutationResult(nil))
	assert.Equal(t, "rejected", mutationResult(cart.ErrAddOnRequiresCourt))
	assert.Equal(t, "rejected", mutationResult(cart.ErrMalformedKey))
	assert.Equal(t, "denied", mutationResult(session.ErrForbidden))
	assert.Equal(t, "error", mutationResult(errors.New("boom")))
}
