package port

import (
	"context"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

type CouponRepository interface {
	// FindByCode returns domain.ErrNotFound for unknown codes
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)

	Create(ctx context.Context, c domain.Coupon) error
}
