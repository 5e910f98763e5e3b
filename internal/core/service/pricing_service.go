package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

// minorUnits is the number of decimal places of the settlement currency.
const minorUnits = 2

type PricingService struct {
	catalog port.CatalogRepository
	coupons port.CouponRepository

	maxConcurrent int
	now           func() time.Time
}

func NewPricingService(catalog port.CatalogRepository, coupons port.CouponRepository, maxConcurrent int) *PricingService {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &PricingService{
		catalog:       catalog,
		coupons:       coupons,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// Price computes subtotal, coupon-adjusted total and savings for a cart.
// Unit prices are re-read from the catalog store, never trusted from the
// client payload. An empty cart prices to zero and is not an error here; the
// checkout orchestrator rejects it before settlement. An unknown or expired
// coupon code is a rejection (ErrInvalidCoupon), never a silent zero
// discount.
func (s *PricingService) Price(ctx context.Context, userID string, cart domain.Cart, couponCode string) (domain.Quote, error) {
	if len(cart) == 0 {
		return domain.Quote{
			Subtotal: decimal.Zero,
			Total:    decimal.Zero,
			Savings:  decimal.Zero,
		}, nil
	}

	lines := make([]domain.OrderItem, len(cart))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range cart {
		g.Go(func() error {
			line := cart[idx]
			if line.Quantity < 1 {
				return fmt.Errorf("product %s: %w", line.ProductID, domain.ErrInvalidQuantity)
			}

			product, err := s.catalog.FindByID(gctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("resolve product %s: %w", line.ProductID, err)
			}

			lines[idx] = domain.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Quantity:  line.Quantity,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	quote := domain.Quote{
		Lines:    lines,
		Subtotal: subtotal,
		Total:    subtotal,
		Savings:  decimal.Zero,
	}
	if couponCode == "" {
		return quote, nil
	}

	coupon, err := s.coupons.FindByCode(ctx, couponCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Quote{}, fmt.Errorf("coupon %s: %w", couponCode, domain.ErrInvalidCoupon)
		}
		return domain.Quote{}, fmt.Errorf("resolve coupon %s: %w", couponCode, err)
	}
	if !coupon.UsableBy(userID, s.now()) {
		return domain.Quote{}, fmt.Errorf("coupon %s: %w", couponCode, domain.ErrInvalidCoupon)
	}

	// total = subtotal * (1 - d/100), rounded half-to-even to the minor unit
	factor := decimal.NewFromInt(100 - int64(coupon.DiscountPercentage)).Div(decimal.NewFromInt(100))
	quote.Total = subtotal.Mul(factor).RoundBank(minorUnits)
	quote.Savings = subtotal.Sub(quote.Total)
	quote.CouponCode = coupon.Code

	return quote, nil
}
