package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

// HostedSession is a gateway-managed checkout flow. RedirectURL is handed to
// the client; SessionID keys the later reconciliation signal.
type HostedSession struct {
	SessionID   string
	RedirectURL string
}

type SessionMetadata struct {
	UserID         string
	CouponCode     string
	IdempotencyKey string
}

type PaymentGateway interface {
	// CreateHostedSession asks the gateway for a hosted checkout session
	// carrying the priced line items and total.
	CreateHostedSession(ctx context.Context, lines []domain.OrderItem, total decimal.Decimal, meta SessionMetadata) (HostedSession, error)

	// VoidSession cancels a session whose order could not be persisted
	VoidSession(ctx context.Context, sessionID string) error
}
