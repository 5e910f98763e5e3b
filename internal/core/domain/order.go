package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusCashOnDelivery PaymentStatus = "cash_on_delivery"
	PaymentStatusFailed         PaymentStatus = "failed"
)

// Terminal reports whether the status is final. Terminal orders are never
// mutated again except by the external reconciliation path.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusCashOnDelivery, PaymentStatusFailed:
		return true
	}
	return false
}

// OrderItem is a frozen snapshot of a product at order time. UnitPrice is a
// copy, immune to later catalog price changes.
type OrderItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type Order struct {
	ID               string
	UserID           string
	Items            []OrderItem
	TotalAmount      decimal.Decimal
	PaymentStatus    PaymentStatus
	CouponCode       string // empty when no coupon was applied
	GatewaySessionID string // empty for cash-on-delivery orders
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Inconsistency records a gateway session that has no matching order because
// both the order write and the compensating session void failed. These are
// resolved manually.
type Inconsistency struct {
	SessionID string
	UserID    string
	Amount    decimal.Decimal
	Detail    string
	CreatedAt time.Time
}
