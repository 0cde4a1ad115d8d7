package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quantumsport/internal/apperr"
	"quantumsport/internal/cart"
	"quantumsport/internal/invoice"
	"quantumsport/internal/slot"
)

const codeSlotUnavailable = "SLOT_UNAVAILABLE"

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Message string   `json:"message"`
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Field   string   `json:"field"`
	SlotIDs []string `json:"slotIds"`
}

func (b errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

type resourceDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type slotDTO struct {
	ResourceID    string `json:"resourceId"`
	Date          string `json:"date"`
	StartAt       string `json:"startAt"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discountPrice"`
	IsAvailable   bool   `json:"isAvailable"`
}

type AvailabilityQuery struct {
	Date       string
	VenueID    string
	ResourceID string
}

// BookingRequest is a Selection Set ready for submission.
type BookingRequest struct {
	CustomerID string
	VenueID    string
	Bookings   []cart.BookingItem
	Coaches    []cart.AddOn
	Inventory  []cart.AddOn
	Totals     cart.Totals
}

type BookingResult struct {
	BookingID     string
	InvoiceID     string
	InvoiceNumber string
	DueDate       time.Time
	Total         int64
}

type bookingLineDTO struct {
	ResourceID string `json:"resourceId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	Price      int64  `json:"price"`
}

type addOnDTO struct {
	ResourceID string `json:"resourceId"`
	TimeSlot   string `json:"timeSlot"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

type bookingRequestDTO struct {
	CustomerID  string           `json:"customerId"`
	VenueID     string           `json:"venueId,omitempty"`
	Bookings    []bookingLineDTO `json:"bookings"`
	Coaches     []addOnDTO       `json:"coaches"`
	Inventories []addOnDTO       `json:"inventories"`
	Subtotal    int64            `json:"subtotal"`
	Tax         int64            `json:"tax"`
	Total       int64            `json:"total"`
}

type bookingResultDTO struct {
	BookingID     string    `json:"bookingId"`
	InvoiceID     string    `json:"invoiceId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	DueDate       time.Time `json:"dueDate"`
	Total         int64     `json:"total"`
}

type invoiceDTO struct {
	ID            string            `json:"id"`
	InvoiceNumber string            `json:"invoiceNumber"`
	Status        string            `json:"status"`
	DueDate       *time.Time        `json:"dueDate"`
	Subtotal      int64             `json:"subtotal"`
	Tax           int64             `json:"tax"`
	Total         int64             `json:"total"`
	PaidAt        *time.Time        `json:"paidAt"`
	CustomerID    string            `json:"customerId"`
	Details       []json.RawMessage `json:"details"`
}

func (c *Client) ListResources(ctx context.Context, venueID string) ([]slot.Resource, error) {
	var dtos []resourceDTO
	if err := c.do(ctx, "list_resources", http.MethodGet, "/venues/"+url.PathEscape(venueID)+"/resources", nil, nil, &dtos); err != nil {
		return nil, err
	}

	out := make([]slot.Resource, 0, len(dtos))
	for _, d := range dtos {
		if d.ID == "" {
			continue
		}
		out = append(out, slot.Resource{ID: d.ID, Name: d.Name, Kind: d.Type})
	}
	return out, nil
}

func (c *Client) ListAvailability(ctx context.Context, q AvailabilityQuery) ([]slot.Slot, error) {
	params := url.Values{}
	params.Set("date", q.Date)
	if q.VenueID != "" {
		params.Set("venueId", q.VenueID)
	}
	if q.ResourceID != "" {
		params.Set("resourceId", q.ResourceID)
	}

	var dtos []slotDTO
	if err := c.do(ctx, "list_availability", http.MethodGet, "/availability", params, nil, &dtos); err != nil {
		return nil, err
	}

	out := make([]slot.Slot, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, slot.Slot{
			ResourceID:    d.ResourceID,
			Date:          d.Date,
			StartAt:       d.StartAt,
			Price:         d.Price,
			DiscountPrice: d.DiscountPrice,
			IsAvailable:   d.IsAvailable,
		})
	}
	return out, nil
}

func (c *Client) SubmitBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	body := bookingRequestDTO{
		CustomerID:  req.CustomerID,
		VenueID:     req.VenueID,
		Bookings:    make([]bookingLineDTO, 0, len(req.Bookings)),
		Coaches:     toAddOnDTOs(req.Coaches),
		Inventories: toAddOnDTOs(req.Inventory),
		Subtotal:    req.Totals.Subtotal,
		Tax:         req.Totals.Tax,
		Total:       req.Totals.GrandTotal,
	}
	for _, b := range req.Bookings {
		body.Bookings = append(body.Bookings, bookingLineDTO{
			ResourceID: b.ResourceID,
			Date:       b.Date,
			StartTime:  b.Time,
			Price:      b.Price,
		})
	}

	var dto bookingResultDTO
	if err := c.do(ctx, "submit_booking", http.MethodPost, "/bookings", nil, body, &dto); err != nil {
		return nil, err
	}
	if dto.InvoiceID == "" {
		return nil, fmt.Errorf("submit_booking: %w: missing invoice id", apperr.ErrInvalidResponse)
	}

	return &BookingResult{
		BookingID:     dto.BookingID,
		InvoiceID:     dto.InvoiceID,
		InvoiceNumber: dto.InvoiceNumber,
		DueDate:       dto.DueDate,
		Total:         dto.Total,
	}, nil
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	var dto invoiceDTO
	err := c.do(ctx, "get_invoice", http.MethodGet, "/invoices/"+url.PathEscape(invoiceID), nil, nil, &dto)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("get_invoice %s: %w", invoiceID, invoice.ErrNotFound)
		}
		return nil, err
	}

	return decodeInvoice(dto)
}

func decodeInvoice(dto invoiceDTO) (*invoice.Invoice, error) {
	if dto.ID == "" {
		return nil, fmt.Errorf("%w: %w: missing id", apperr.ErrInvalidResponse, invoice.ErrMalformedInvoice)
	}
	status, err := invoice.ParseStatus(dto.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidResponse, err)
	}
	details, err := invoice.DecodeDetails(dto.Details)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidResponse, err)
	}

	inv := &invoice.Invoice{
		ID:         dto.ID,
		Number:     dto.InvoiceNumber,
		Status:     status,
		Subtotal:   dto.Subtotal,
		Tax:        dto.Tax,
		Total:      dto.Total,
		Details:    details,
		PaidAt:     dto.PaidAt,
		CustomerID: dto.CustomerID,
	}
	if dto.DueDate != nil {
		inv.DueDate = *dto.DueDate
	}
	return inv, nil
}

func toAddOnDTOs(addOns []cart.AddOn) []addOnDTO {
	out := make([]addOnDTO, 0, len(addOns))
	for _, a := range addOns {
		out = append(out, addOnDTO{
			ResourceID: a.ResourceID,
			TimeSlot:   a.TimeSlot,
			Quantity:   a.Quantity,
			Price:      a.Price,
		})
	}
	return out
}
