package checkout

import (
	"time"

	"quantumsport/internal/cart"
)

// Checkout is one submitted Selection Set as recorded in the ledger.
type Checkout struct {
	ID                int64      `db:"id" json:"id"`
	SessionID         string     `db:"session_id" json:"session_id"`
	CustomerID        string     `db:"customer_id" json:"customer_id"`
	CustomerEmail     string     `db:"customer_email" json:"customer_email"`
	CustomerName      string     `db:"customer_name" json:"customer_name"`
	VenueID           string     `db:"venue_id" json:"venue_id"`
	BookingID         string     `db:"booking_id" json:"booking_id"`
	InvoiceID         string     `db:"invoice_id" json:"invoice_id"`
	InvoiceNumber     string     `db:"invoice_number" json:"invoice_number"`
	CourtSubtotal     int64      `db:"court_subtotal" json:"court_subtotal"`
	CoachSubtotal     int64      `db:"coach_subtotal" json:"coach_subtotal"`
	InventorySubtotal int64      `db:"inventory_subtotal" json:"inventory_subtotal"`
	Subtotal          int64      `db:"subtotal" json:"subtotal"`
	Tax               int64      `db:"tax" json:"tax"`
	GrandTotal        int64      `db:"grand_total" json:"grand_total"`
	// ChargedTotal is the invoice amount the booking API issued. It can differ from GrandTotal,
	// which is computed from the prices the client selected.
	ChargedTotal      int64      `db:"charged_total" json:"charged_total"`
	Status            string     `db:"status" json:"status"`
	DueDate           *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

type Customer struct {
	ID    string
	Email string
	Name  string
}

type CheckoutRequest struct {
	VenueID string `json:"venue_id" binding:"required" example:"venue-1"`
}

// Result is returned after a successful submission. Cart is the submitted Selection Set;
// those lines have left the session.
type Result struct {
	Checkout *Checkout `json:"checkout"`
	Cart     cart.View `json:"cart"`
	Recorded bool      `json:"recorded"`
}
