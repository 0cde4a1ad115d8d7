package invoice

import (
	"encoding/json"
	"time"
)

// Invoice is the booking backend's invoice as seen by this service.
type Invoice struct {
	ID         string
	Number     string
	Status     Status
	DueDate    time.Time
	Subtotal   int64
	Tax        int64
	Total      int64
	Details    []Detail
	PaidAt     *time.Time
	CustomerID string
}

// Remaining is the time left before the due date, never negative. An invoice without a due
// date has nothing left.
func (inv *Invoice) Remaining(now time.Time) time.Duration {
	if inv.DueDate.IsZero() {
		return 0
	}
	if d := inv.DueDate.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (inv *Invoice) Summary() Summary {
	return Summarize(inv.Details)
}

type invoiceJSON struct {
	ID         string            `json:"id"`
	Number     string            `json:"number"`
	Status     Status            `json:"status"`
	DueDate    *time.Time        `json:"due_date,omitempty"`
	Subtotal   int64             `json:"subtotal"`
	Tax        int64             `json:"tax"`
	Total      int64             `json:"total"`
	Details    []json.RawMessage `json:"details"`
	PaidAt     *time.Time        `json:"paid_at,omitempty"`
	CustomerID string            `json:"customer_id,omitempty"`
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	out := invoiceJSON{
		ID:         inv.ID,
		Number:     inv.Number,
		Status:     inv.Status,
		Subtotal:   inv.Subtotal,
		Tax:        inv.Tax,
		Total:      inv.Total,
		Details:    make([]json.RawMessage, 0, len(inv.Details)),
		PaidAt:     inv.PaidAt,
		CustomerID: inv.CustomerID,
	}
	if !inv.DueDate.IsZero() {
		due := inv.DueDate
		out.DueDate = &due
	}
	for _, d := range inv.Details {
		raw, err := MarshalDetail(d)
		if err != nil {
			return nil, err
		}
		out.Details = append(out.Details, raw)
	}
	return json.Marshal(out)
}
