package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Services wrap these with %w and
// handlers map them onto HTTP statuses.
var (
	ErrUserExists         = errors.New("email or username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrNoActiveCode    = errors.New("no active code found")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrInvalidCode     = errors.New("invalid code")

	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrSelfPurchase = errors.New("cannot add your own product to cart")
	ErrEmptyCart    = errors.New("cart is empty")
)

// ItemsUnavailableError reports a checkout blocked by products that were
// deactivated after they were added to the cart.
type ItemsUnavailableError struct {
	Titles []string
}

func (e *ItemsUnavailableError) Error() string {
	return fmt.Sprintf("some items are no longer available: %s", strings.Join(e.Titles, ", "))
}
