// Package checkout submits a session's Selection Set to the booking API and keeps a ledger of
// what was submitted.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"quantumsport/internal/apperr"
	"quantumsport/internal/cart"
	"quantumsport/internal/email"
	"quantumsport/internal/invoice"
	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
	"quantumsport/internal/session"
	"quantumsport/internal/upstream"
)

type Submitter interface {
	SubmitBooking(ctx context.Context, req upstream.BookingRequest) (*upstream.BookingResult, error)
}

type Sessions interface {
	BeginCheckout(ctx context.Context, id, customerID string) (*session.Session, error)
	FinishCheckout(ctx context.Context, id, customerID string, submitted *cart.Cart) (*session.Session, error)
}

type InvoiceWatcher interface {
	Watch(invoiceID string, to invoice.Recipient) bool
}

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to, name string, c email.Confirmation) error
}

type Service interface {
	Checkout(ctx context.Context, sessionID, venueID string, customer Customer) (*Result, error)
	ListForCustomer(ctx context.Context, customerID string) ([]Checkout, error)
	ListAll(ctx context.Context, limit, offset int) ([]Checkout, error)
}

type service struct {
	repo       Repository
	sessions   Sessions
	submitter  Submitter
	watcher    InvoiceWatcher
	mailer     Mailer
	taxRateBps int64
}

func NewService(repo Repository, sessions Sessions, submitter Submitter, watcher InvoiceWatcher, mailer Mailer, taxRateBps int64) Service {
	return &service{
		repo:       repo,
		sessions:   sessions,
		submitter:  submitter,
		watcher:    watcher,
		mailer:     mailer,
		taxRateBps: taxRateBps,
	}
}

// Checkout reserves the session, validates its cart locally and submits it. Once the booking
// API has accepted it, the submitted lines leave the session, the checkout is recorded and the
// invoice is watched. Any failure before acceptance leaves the cart as it was. Selections made
// while the submission is in flight stay in the session.
func (s *service) Checkout(ctx context.Context, sessionID, venueID string, customer Customer) (*Result, error) {
	sess, err := s.sessions.BeginCheckout(ctx, sessionID, customer.ID)
	if err != nil {
		if errors.Is(err, session.ErrCheckoutInProgress) {
			metrics.RecordCheckout("duplicate")
		}
		return nil, err
	}

	selection := sess.Cart
	if err := selection.Validate(); err != nil {
		s.release(ctx, sessionID, customer.ID, nil)
		metrics.RecordCheckout("rejected")
		return nil, err
	}
	totals := cart.ComputeTotals(selection, s.taxRateBps)

	res, err := s.submitter.SubmitBooking(ctx, upstream.BookingRequest{
		CustomerID: customer.ID,
		VenueID:    venueID,
		Bookings:   selection.Bookings,
		Coaches:    selection.Coaches,
		Inventory:  selection.Inventory,
		Totals:     totals,
	})
	if err != nil {
		s.release(ctx, sessionID, customer.ID, nil)
		metrics.RecordCheckout(outcome(err))
		logger.Warn("Checkout submission failed", "session_id", sessionID, "customer_id", customer.ID, "error", err)
		return nil, err
	}

	charged := res.Total
	if charged <= 0 {
		charged = totals.GrandTotal
	}
	if charged != totals.GrandTotal {
		logger.Warn("Booking API charged a different total than quoted",
			"invoice_id", res.InvoiceID,
			"quoted", totals.GrandTotal,
			"charged", charged,
		)
	}

	row := &Checkout{
		SessionID:         sessionID,
		CustomerID:        customer.ID,
		CustomerEmail:     customer.Email,
		CustomerName:      customer.Name,
		VenueID:           venueID,
		BookingID:         res.BookingID,
		InvoiceID:         res.InvoiceID,
		InvoiceNumber:     res.InvoiceNumber,
		CourtSubtotal:     totals.CourtSubtotal,
		CoachSubtotal:     totals.CoachSubtotal,
		InventorySubtotal: totals.InventorySubtotal,
		Subtotal:          totals.Subtotal,
		Tax:               totals.Tax,
		GrandTotal:        totals.GrandTotal,
		ChargedTotal:      charged,
		Status:            invoice.StatusPending.String(),
	}
	if !res.DueDate.IsZero() {
		due := res.DueDate
		row.DueDate = &due
	}

	// The booking exists upstream from here on, so later failures are logged, not returned.
	s.release(ctx, sessionID, customer.ID, selection)

	recorded := true
	if created, err := s.repo.Create(ctx, row); err != nil {
		recorded = false
		logger.Error("Failed to record checkout", "invoice_id", res.InvoiceID, "customer_id", customer.ID, "error", err)
	} else {
		row = created
	}

	s.watcher.Watch(res.InvoiceID, invoice.Recipient{Email: customer.Email, Name: customer.Name})

	if customer.Email != "" {
		if err := s.mailer.SendBookingConfirmation(ctx, customer.Email, customer.Name, email.Confirmation{
			InvoiceID:     res.InvoiceID,
			InvoiceNumber: res.InvoiceNumber,
			Lines:         describe(selection),
			GrandTotal:    charged,
			DueDate:       res.DueDate,
		}); err != nil {
			logger.Warn("Failed to queue booking confirmation", "invoice_id", res.InvoiceID, "error", err)
		}
	}

	metrics.RecordCheckout("submitted")
	metrics.RecordCheckoutAmount(charged)
	logger.Info("Checkout submitted",
		"session_id", sessionID,
		"customer_id", customer.ID,
		"invoice_id", res.InvoiceID,
		"charged_total", charged,
	)

	return &Result{
		Checkout: row,
		Cart:     cart.NewView(selection, s.taxRateBps),
		Recorded: recorded,
	}, nil
}

// release ends the checkout hold, removing submitted lines when there are any. It runs even
// when the request was cancelled so the hold does not outlive the attempt.
func (s *service) release(ctx context.Context, sessionID, customerID string, submitted *cart.Cart) {
	if _, err := s.sessions.FinishCheckout(context.WithoutCancel(ctx), sessionID, customerID, submitted); err != nil {
		logger.Warn("Failed to release session after checkout", "session_id", sessionID, "submitted", submitted != nil, "error", err)
	}
}

func (s *service) ListForCustomer(ctx context.Context, customerID string) ([]Checkout, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) ListAll(ctx context.Context, limit, offset int) ([]Checkout, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func outcome(err error) string {
	var validation *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrSlotUnavailable):
		return "conflict"
	case errors.Is(err, apperr.ErrTimeout):
		return "timeout"
	case errors.Is(err, apperr.ErrNetwork):
		return "network"
	case errors.As(err, &validation):
		return "rejected"
	default:
		return "error"
	}
}

func describe(c *cart.Cart) []string {
	var lines []string
	for _, group := range cart.GroupByDate(c.Bookings) {
		for _, b := range group.SortedByTime() {
			name := b.ResourceName
			if name == "" {
				name = b.ResourceID
			}
			lines = append(lines, fmt.Sprintf("%s %s %s - %s", name, b.Date, b.Time, email.FormatRupiah(b.Price)))
		}
	}
	for _, a := range c.Coaches {
		lines = append(lines, fmt.Sprintf("Coach %s (%s) - %s", addOnName(a), a.TimeSlot, email.FormatRupiah(a.Price)))
	}
	for _, a := range c.Inventory {
		lines = append(lines, fmt.Sprintf("%s x%d - %s", addOnName(a), a.Quantity, email.FormatRupiah(a.Price)))
	}
	return lines
}

func addOnName(a cart.AddOn) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ResourceID
}
