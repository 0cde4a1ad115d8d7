package cart

import "errors"

var (
	// ErrAddOnRequiresCourt rejects coach and inventory changes while no court is booked.
	ErrAddOnRequiresCourt = errors.New("add-ons require at least one court booking")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMalformedKey       = errors.New("malformed selection key")
)

// IsValidation reports whether err is a local validation failure that should be shown to
// the user without any network call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrAddOnRequiresCourt) || errors.Is(err, ErrEmptyCart)
}
