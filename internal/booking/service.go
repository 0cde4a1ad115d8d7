// Package booking exposes booking sessions and their Selection Set over HTTP.
package booking

import (
	"context"
	"errors"
	"fmt"

	"quantumsport/internal/cart"
	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
	"quantumsport/internal/session"
	"quantumsport/internal/slot"
)

// Sessions is the subset of session.Manager the service needs.
type Sessions interface {
	Create(ctx context.Context, customerID string) (*session.Session, error)
	Get(ctx context.Context, id, customerID string) (*session.Session, error)
	Mutate(ctx context.Context, id, customerID string, fn func(*cart.Cart) error) (*session.Session, error)
	Clear(ctx context.Context, id, customerID string) (*session.Session, error)
	Delete(ctx context.Context, id, customerID string) error
}

type Service interface {
	CreateSession(ctx context.Context, customerID string) (*SessionResponse, error)
	EndSession(ctx context.Context, sessionID, customerID string) error
	Cart(ctx context.Context, sessionID, customerID string) (*CartResponse, error)
	ToggleBooking(ctx context.Context, sessionID, customerID string, req ToggleBookingRequest) (*CartResponse, error)
	RemoveBooking(ctx context.Context, sessionID, customerID string, key cart.BookingKey) (*CartResponse, error)
	ToggleCoach(ctx context.Context, sessionID, customerID string, req ToggleCoachRequest) (*CartResponse, error)
	SetInventory(ctx context.Context, sessionID, customerID string, req SetInventoryRequest) (*CartResponse, error)
	Clear(ctx context.Context, sessionID, customerID string) (*CartResponse, error)
}

type service struct {
	sessions   Sessions
	taxRateBps int64
}

func NewService(sessions Sessions, taxRateBps int64) Service {
	return &service{
		sessions:   sessions,
		taxRateBps: taxRateBps,
	}
}

func (s *service) CreateSession(ctx context.Context, customerID string) (*SessionResponse, error) {
	sess, err := s.sessions.Create(ctx, customerID)
	if err != nil {
		logger.Error("Failed to create booking session", "customer_id", customerID, "error", err)
		return nil, err
	}

	logger.Info("Booking session created", "session_id", sess.ID, "customer_id", customerID)
	return &SessionResponse{
		ID:         sess.ID,
		CustomerID: sess.CustomerID,
		CreatedAt:  sess.CreatedAt,
		ExpiresAt:  sess.ExpiresAt,
		Cart:       cart.NewView(sess.Cart, s.taxRateBps),
	}, nil
}

func (s *service) EndSession(ctx context.Context, sessionID, customerID string) error {
	if err := s.sessions.Delete(ctx, sessionID, customerID); err != nil {
		return err
	}
	logger.Info("Booking session ended", "session_id", sessionID, "customer_id", customerID)
	return nil
}

func (s *service) Cart(ctx context.Context, sessionID, customerID string) (*CartResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID, customerID)
	if err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

func (s *service) ToggleBooking(ctx context.Context, sessionID, customerID string, req ToggleBookingRequest) (*CartResponse, error) {
	var selected bool
	sess, err := s.mutate(ctx, "toggle_booking", sessionID, customerID, func(c *cart.Cart) error {
		var err error
		selected, err = c.ToggleBookingItem(cart.BookingItem{
			ResourceID:   req.ResourceID,
			ResourceName: req.ResourceName,
			Time:         req.Time,
			Date:         req.Date,
			Price:        req.Price,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := s.respond(sess)
	resp.Selected = &selected
	return resp, nil
}

func (s *service) RemoveBooking(ctx context.Context, sessionID, customerID string, key cart.BookingKey) (*CartResponse, error) {
	hhmm, ok := slot.NormalizeTime(key.Time, nil)
	if !ok {
		return nil, fmt.Errorf("%w: invalid time %q", cart.ErrMalformedKey, key.Time)
	}
	key.Time = hhmm

	sess, err := s.mutate(ctx, "remove_booking", sessionID, customerID, func(c *cart.Cart) error {
		c.RemoveBookingItem(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

func (s *service) ToggleCoach(ctx context.Context, sessionID, customerID string, req ToggleCoachRequest) (*CartResponse, error) {
	var selected bool
	sess, err := s.mutate(ctx, "toggle_coach", sessionID, customerID, func(c *cart.Cart) error {
		var err error
		selected, err = c.ToggleCoach(cart.AddOn{
			ResourceID: req.ResourceID,
			Name:       req.Name,
			TimeSlot:   req.TimeSlot,
			UnitPrice:  req.Price,
			Price:      req.Price,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := s.respond(sess)
	resp.Selected = &selected
	return resp, nil
}

func (s *service) SetInventory(ctx context.Context, sessionID, customerID string, req SetInventoryRequest) (*CartResponse, error) {
	var applied int
	sess, err := s.mutate(ctx, "set_inventory", sessionID, customerID, func(c *cart.Cart) error {
		var err error
		applied, err = c.SetInventoryQuantity(req.ResourceID, req.TimeSlot, req.Name, req.Quantity, req.Available, req.UnitPrice)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := s.respond(sess)
	resp.Quantity = &applied
	return resp, nil
}

func (s *service) Clear(ctx context.Context, sessionID, customerID string) (*CartResponse, error) {
	sess, err := s.sessions.Clear(ctx, sessionID, customerID)
	if err != nil {
		metrics.RecordCartMutation("clear", mutationResult(err))
		return nil, err
	}
	metrics.RecordCartMutation("clear", "ok")
	return s.respond(sess), nil
}

func (s *service) mutate(ctx context.Context, op, sessionID, customerID string, fn func(*cart.Cart) error) (*session.Session, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, customerID, fn)
	metrics.RecordCartMutation(op, mutationResult(err))
	if err != nil {
		logger.Debug("Cart mutation rejected", "operation", op, "session_id", sessionID, "error", err)
		return nil, err
	}
	return sess, nil
}

func (s *service) respond(sess *session.Session) *CartResponse {
	return &CartResponse{
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Cart:      cart.NewView(sess.Cart, s.taxRateBps),
	}
}

func mutationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case cart.IsValidation(err), errors.Is(err, cart.ErrMalformedKey):
		return "rejected"
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrForbidden):
		return "denied"
	default:
		return "error"
	}
}
