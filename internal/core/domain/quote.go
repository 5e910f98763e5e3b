package domain

import "github.com/shopspring/decimal"

// Quote is the priced form of a cart: current catalog prices per line, the
// resulting subtotal and the coupon-adjusted total. Lines double as the order
// snapshot when the quote proceeds to settlement.
type Quote struct {
	Lines      []OrderItem
	Subtotal   decimal.Decimal
	Total      decimal.Decimal
	Savings    decimal.Decimal
	CouponCode string // empty when no coupon was applied
}
