package cart

import "time"

// DefaultTimeSlot keys add-ons that are not tied to a court time, such as rental equipment
// held for the whole visit.
const DefaultTimeSlot = "default"

type Category string

const (
	CategoryCourt     Category = "court"
	CategoryCoach     Category = "coach"
	CategoryInventory Category = "inventory"
)

// BookingItem is a chosen court slot. (ResourceID, Time, Date) identifies it.
type BookingItem struct {
	ResourceID   string `json:"resource_id"`
	ResourceName string `json:"resource_name"`
	Time         string `json:"time"`
	Date         string `json:"date"`
	Price        int64  `json:"price"`
}

func (b BookingItem) Key() BookingKey {
	return BookingKey{ResourceID: b.ResourceID, Time: b.Time, Date: b.Date}
}

type BookingKey struct {
	ResourceID string
	Time       string
	Date       string
}

// AddOn is a coach session or an inventory rental. (ResourceID, TimeSlot) identifies it.
// Quantity is 1 for coaches; Price is already multiplied by Quantity.
type AddOn struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	TimeSlot   string `json:"time_slot"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	Price      int64  `json:"price"`
}

func (a AddOn) Key() AddOnKey {
	return AddOnKey{ResourceID: a.ResourceID, TimeSlot: a.TimeSlot}
}

type AddOnKey struct {
	ResourceID string
	TimeSlot   string
}

// Cart is the Selection Set of one booking session. It is not safe for concurrent use;
// session.Manager serializes access.
type Cart struct {
	Bookings  []BookingItem `json:"bookings"`
	Coaches   []AddOn       `json:"coaches"`
	Inventory []AddOn       `json:"inventory"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func New() *Cart {
	return &Cart{
		Bookings:  []BookingItem{},
		Coaches:   []AddOn{},
		Inventory: []AddOn{},
	}
}

func (c *Cart) HasCourtBooking() bool {
	return len(c.Bookings) > 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Bookings) == 0 && len(c.Coaches) == 0 && len(c.Inventory) == 0
}

// Clone returns a deep copy that shares no slices with c.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		Bookings:  append([]BookingItem{}, c.Bookings...),
		Coaches:   append([]AddOn{}, c.Coaches...),
		Inventory: append([]AddOn{}, c.Inventory...),
		UpdatedAt: c.UpdatedAt,
	}
	return out
}

func (c *Cart) HasBooking(key BookingKey) bool {
	return indexBooking(c.Bookings, key) >= 0
}
