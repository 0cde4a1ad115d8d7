package slot

// Resource is a bookable court, coach or ball boy.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Slot is one bookable (resource, date, time) unit as returned by the availability query.
// StartAt is kept as received; Resolve normalizes it.
type Slot struct {
	ResourceID    string `json:"resource_id"`
	Date          string `json:"date"`
	StartAt       string `json:"start_at"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
	IsAvailable   bool   `json:"is_available"`
}

// EffectivePrice is the discount price when it is positive and lower than the normal price.
func (s Slot) EffectivePrice() int64 {
	if s.DiscountPrice != nil && *s.DiscountPrice > 0 && *s.DiscountPrice < s.Price {
		return *s.DiscountPrice
	}
	return s.Price
}

func (s Slot) Selectable() bool {
	return s.IsAvailable && s.EffectivePrice() > 0
}
