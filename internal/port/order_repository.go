package port

import (
	"context"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)

	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// UpdateStatus transitions the order matched by order id or gateway
	// session id. It is idempotent: applying the same status twice is a
	// no-op returning the current record.
	UpdateStatus(ctx context.Context, orderOrSessionID string, status domain.PaymentStatus) (domain.Order, error)

	// RecordInconsistency persists a manual-reconciliation record
	RecordInconsistency(ctx context.Context, rec domain.Inconsistency) error
}
