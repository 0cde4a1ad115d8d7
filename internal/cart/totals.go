package cart

import (
	"sort"
)

// DefaultTaxRateBps is 10% expressed in basis points.
const DefaultTaxRateBps int64 = 1000

type Totals struct {
	CourtSubtotal     int64 `json:"court_subtotal"`
	CoachSubtotal     int64 `json:"coach_subtotal"`
	InventorySubtotal int64 `json:"inventory_subtotal"`
	Subtotal          int64 `json:"subtotal"`
	Tax               int64 `json:"tax"`
	GrandTotal        int64 `json:"grand_total"`
}

type DateGroup struct {
	Date  string        `json:"date"`
	Items []BookingItem `json:"items"`
}

// SortedByTime returns the group's items ordered by their HH:mm label.
func (g DateGroup) SortedByTime() []BookingItem {
	out := append([]BookingItem{}, g.Items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// GroupByDate partitions items by date, dates ascending, keeping insertion order inside
// each date.
func GroupByDate(items []BookingItem) []DateGroup {
	index := make(map[string]int)
	groups := make([]DateGroup, 0)

	for _, item := range items {
		i, ok := index[item.Date]
		if !ok {
			i = len(groups)
			index[item.Date] = i
			groups = append(groups, DateGroup{Date: item.Date})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
	return groups
}

// ComputeTotals derives subtotals, tax and grand total from c. Tax is rounded half up to
// the nearest whole currency unit.
func ComputeTotals(c *Cart, taxRateBps int64) Totals {
	var t Totals
	for _, b := range c.Bookings {
		t.CourtSubtotal += b.Price
	}
	for _, a := range c.Coaches {
		t.CoachSubtotal += a.Price
	}
	for _, a := range c.Inventory {
		t.InventorySubtotal += a.Price
	}

	t.Subtotal = t.CourtSubtotal + t.CoachSubtotal + t.InventorySubtotal
	t.Tax = Tax(t.Subtotal, taxRateBps)
	t.GrandTotal = t.Subtotal + t.Tax
	return t
}

func Tax(subtotal, rateBps int64) int64 {
	if subtotal <= 0 || rateBps <= 0 {
		return 0
	}
	return (subtotal*rateBps + 5000) / 10000
}

// View is the read model rendered for a session's cart.
type View struct {
	Bookings  []DateGroup `json:"bookings"`
	Coaches   []AddOn     `json:"coaches"`
	Inventory []AddOn     `json:"inventory"`
	Totals    Totals      `json:"totals"`
}

func NewView(c *Cart, taxRateBps int64) View {
	groups := GroupByDate(c.Bookings)
	for i := range groups {
		groups[i].Items = groups[i].SortedByTime()
	}
	return View{
		Bookings:  groups,
		Coaches:   append([]AddOn{}, c.Coaches...),
		Inventory: append([]AddOn{}, c.Inventory...),
		Totals:    ComputeTotals(c, taxRateBps),
	}
}
