package domain

import "errors"

var (
	// ErrNotFound covers missing products, orders and coupons. Adapters map
	// their driver-level "no rows" signals to this so callers can answer 404
	// instead of 500.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCoupon is returned for unknown, expired or out-of-scope
	// coupon codes. A missing code is not an error; a bad code always is.
	ErrInvalidCoupon = errors.New("invalid or expired coupon")

	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrDuplicateRequest = errors.New("duplicate request")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrGatewayTimeout      = errors.New("payment gateway timeout")

	// ErrPersistenceFailure means the order write failed after settlement was
	// already arranged; the gateway session was voided and the attempt can be
	// retried.
	ErrPersistenceFailure = errors.New("order persistence failed")

	// ErrInconsistent means compensation itself failed: a gateway session
	// exists with no matching order. The inconsistency is recorded for manual
	// reconciliation before this error is returned.
	ErrInconsistent = errors.New("order state inconsistent, manual reconciliation required")
)
