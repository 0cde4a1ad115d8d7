package cart

import (
	"fmt"
	"slices"
	"strings"

	"quantumsport/internal/slot"
)

// ToggleBookingItem removes the item with the same (resource, time, date) key, or appends
// it when absent. It reports whether the item is now selected.
func (c *Cart) ToggleBookingItem(item BookingItem) (bool, error) {
	item, err := normalizeBooking(item)
	if err != nil {
		return false, err
	}

	if i := indexBooking(c.Bookings, item.Key()); i >= 0 {
		c.Bookings = slices.Delete(c.Bookings, i, i+1)
		return false, nil
	}

	c.Bookings = append(c.Bookings, item)
	return true, nil
}

// RemoveBookingItem drops the item for key if present. Missing keys are a no-op.
func (c *Cart) RemoveBookingItem(key BookingKey) {
	if i := indexBooking(c.Bookings, key); i >= 0 {
		c.Bookings = slices.Delete(c.Bookings, i, i+1)
	}
}

// ToggleCoach adds or removes a coach session keyed by (resource, time slot).
func (c *Cart) ToggleCoach(addon AddOn) (bool, error) {
	addon, err := normalizeAddOn(addon)
	if err != nil {
		return false, err
	}
	if !c.HasCourtBooking() {
		return false, ErrAddOnRequiresCourt
	}

	if i := indexAddOn(c.Coaches, addon.Key()); i >= 0 {
		c.Coaches = slices.Delete(c.Coaches, i, i+1)
		return false, nil
	}

	addon.Quantity = 1
	if addon.Price == 0 {
		addon.Price = addon.UnitPrice
	}
	if addon.UnitPrice == 0 {
		addon.UnitPrice = addon.Price
	}
	c.Coaches = append(c.Coaches, addon)
	return true, nil
}

// SetInventoryQuantity clamps quantity into [0, available]. Zero removes the entry for
// (resourceID, timeSlot); anything else upserts it priced at quantity × unitPrice.
// It returns the quantity that was applied.
func (c *Cart) SetInventoryQuantity(resourceID, timeSlot, name string, quantity, available int, unitPrice int64) (int, error) {
	addon, err := normalizeAddOn(AddOn{
		ResourceID: resourceID,
		Name:       name,
		TimeSlot:   timeSlot,
		UnitPrice:  unitPrice,
	})
	if err != nil {
		return 0, err
	}
	if available < 0 {
		return 0, fmt.Errorf("%w: negative available quantity %d", ErrMalformedKey, available)
	}
	if !c.HasCourtBooking() {
		return 0, ErrAddOnRequiresCourt
	}

	quantity = min(max(quantity, 0), available)
	i := indexAddOn(c.Inventory, addon.Key())

	if quantity == 0 {
		if i >= 0 {
			c.Inventory = slices.Delete(c.Inventory, i, i+1)
		}
		return 0, nil
	}

	addon.Quantity = quantity
	addon.Price = int64(quantity) * unitPrice
	if i >= 0 {
		c.Inventory[i] = addon
	} else {
		c.Inventory = append(c.Inventory, addon)
	}
	return quantity, nil
}

// ClearAll empties every category in one step.
func (c *Cart) ClearAll() {
	*c = Cart{
		Bookings:  []BookingItem{},
		Coaches:   []AddOn{},
		Inventory: []AddOn{},
		UpdatedAt: c.UpdatedAt,
	}
}

// RemoveSubmitted drops the lines of submitted from c after a successful checkout. An add-on
// whose quantity changed after submission stays, since the new quantity was never booked.
func (c *Cart) RemoveSubmitted(submitted *Cart) {
	c.Bookings = slices.DeleteFunc(c.Bookings, func(b BookingItem) bool {
		return submitted.HasBooking(b.Key())
	})
	c.Coaches = removeAddOns(c.Coaches, submitted.Coaches)
	c.Inventory = removeAddOns(c.Inventory, submitted.Inventory)
}

func removeAddOns(items, submitted []AddOn) []AddOn {
	return slices.DeleteFunc(items, func(a AddOn) bool {
		i := indexAddOn(submitted, a.Key())
		return i >= 0 && submitted[i].Quantity == a.Quantity
	})
}

// Validate checks that the cart can be submitted.
func (c *Cart) Validate() error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	if !c.HasCourtBooking() {
		return ErrAddOnRequiresCourt
	}
	return nil
}

func normalizeBooking(item BookingItem) (BookingItem, error) {
	item.ResourceID = strings.TrimSpace(item.ResourceID)
	if item.ResourceID == "" {
		return item, fmt.Errorf("%w: empty resource id", ErrMalformedKey)
	}
	if !slot.ValidDate(item.Date) {
		return item, fmt.Errorf("%w: invalid date %q", ErrMalformedKey, item.Date)
	}
	hhmm, ok := slot.NormalizeTime(item.Time, nil)
	if !ok {
		return item, fmt.Errorf("%w: invalid time %q", ErrMalformedKey, item.Time)
	}
	item.Time = hhmm
	if item.Price < 0 {
		return item, fmt.Errorf("%w: negative price", ErrMalformedKey)
	}
	return item, nil
}

func normalizeAddOn(addon AddOn) (AddOn, error) {
	addon.ResourceID = strings.TrimSpace(addon.ResourceID)
	if addon.ResourceID == "" {
		return addon, fmt.Errorf("%w: empty resource id", ErrMalformedKey)
	}
	addon.TimeSlot = strings.TrimSpace(addon.TimeSlot)
	if addon.TimeSlot == "" {
		addon.TimeSlot = DefaultTimeSlot
	}
	if addon.Price < 0 || addon.UnitPrice < 0 {
		return addon, fmt.Errorf("%w: negative price", ErrMalformedKey)
	}
	return addon, nil
}

func indexBooking(items []BookingItem, key BookingKey) int {
	return slices.IndexFunc(items, func(b BookingItem) bool {
		return b.Key() == key
	})
}

func indexAddOn(items []AddOn, key AddOnKey) int {
	return slices.IndexFunc(items, func(a AddOn) bool {
		return a.Key() == key
	})
}
