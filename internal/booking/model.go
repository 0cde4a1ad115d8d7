package booking

import (
	"time"

	"quantumsport/internal/cart"
)

type ToggleBookingRequest struct {
	ResourceID   string `json:"resource_id" binding:"required" example:"court-1"`
	ResourceName string `json:"resource_name" example:"Court A"`
	Time         string `json:"time" binding:"required" example:"08:00"`
	Date         string `json:"date" binding:"required,datetime=2006-01-02" example:"2025-01-20"`
	Price        int64  `json:"price" binding:"gte=0" example:"100000"`
}

type ToggleCoachRequest struct {
	ResourceID string `json:"resource_id" binding:"required" example:"coach-7"`
	Name       string `json:"name" example:"Coach Rina"`
	TimeSlot   string `json:"time_slot" example:"08:00"`
	Price      int64  `json:"price" binding:"gte=0" example:"250000"`
}

// SetInventoryRequest sets the absolute quantity of one rental item. Quantity is clamped
// into [0, Available]; zero removes the entry.
type SetInventoryRequest struct {
	ResourceID string `json:"resource_id" binding:"required" example:"racket-1"`
	Name       string `json:"name" example:"Racket"`
	TimeSlot   string `json:"time_slot" example:"default"`
	Quantity   int    `json:"quantity" example:"2"`
	Available  int    `json:"available" binding:"gte=0" example:"10"`
	UnitPrice  int64  `json:"unit_price" binding:"gte=0" example:"50000"`
}

type SessionResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Cart       cart.View `json:"cart"`
}

// CartResponse is returned by every cart endpoint. Selected is set by toggles and Quantity by
// inventory updates.
type CartResponse struct {
	SessionID string    `json:"session_id"`
	Selected  *bool     `json:"selected,omitempty"`
	Quantity  *int      `json:"quantity,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Cart      cart.View `json:"cart"`
}
