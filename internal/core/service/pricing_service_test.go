package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

func testProduct(id, name, price string) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

func newPricingFixture() (*PricingService, *mockCatalogRepo, *mockCouponRepo) {
	catalog := newMockCatalogRepo(
		testProduct("prod-a", "Product A", "500"),
		testProduct("prod-b", "Product B", "1.25"),
	)
	now := time.Now()
	coupons := newMockCouponRepo(
		domain.Coupon{Code: "SAVE10", DiscountPercentage: 10, ExpiresAt: now.Add(time.Hour), Active: true},
		domain.Coupon{Code: "EXPIRED5", DiscountPercentage: 5, ExpiresAt: now.Add(-time.Hour), Active: true},
		domain.Coupon{Code: "PERSONAL15", DiscountPercentage: 15, ExpiresAt: now.Add(time.Hour), Active: true, UserID: "user-2"},
	)
	return NewPricingService(catalog, coupons, 4), catalog, coupons
}

func TestPrice_NoCoupon(t *testing.T) {
	svc, _, _ := newPricingFixture()

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 2}}, "")
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal = %s", quote.Subtotal)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(1000)), "total = %s", quote.Total)
	assert.True(t, quote.Savings.IsZero(), "savings = %s", quote.Savings)
	assert.Empty(t, quote.CouponCode)
}

func TestPrice_ValidCoupon(t *testing.T) {
	svc, _, _ := newPricingFixture()

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 2}}, "SAVE10")
	require.NoError(t, err)

	assert.True(t, quote.Total.Equal(decimal.NewFromInt(900)), "total = %s", quote.Total)
	assert.True(t, quote.Savings.Equal(decimal.NewFromInt(100)), "savings = %s", quote.Savings)
	assert.Equal(t, "SAVE10", quote.CouponCode)
}

func TestPrice_RoundsHalfToEven(t *testing.T) {
	// 1.25 * 0.9 = 1.125: the half rounds down to the even digit.
	svc, _, _ := newPricingFixture()

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-b", Quantity: 1}}, "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, "1.12", quote.Total.String())
	assert.Equal(t, "0.13", quote.Savings.String())
}

func TestPrice_RoundsHalfToEvenUp(t *testing.T) {
	// 3.75 * 0.9 = 3.375: the half rounds up to the even digit.
	catalog := newMockCatalogRepo(testProduct("prod-c", "Product C", "3.75"))
	coupons := newMockCouponRepo(domain.Coupon{Code: "SAVE10", DiscountPercentage: 10, ExpiresAt: time.Now().Add(time.Hour), Active: true})
	svc := NewPricingService(catalog, coupons, 4)

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-c", Quantity: 1}}, "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, "3.38", quote.Total.String())
}

func TestPrice_ExpiredCoupon(t *testing.T) {
	svc, _, _ := newPricingFixture()

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 2}}, "EXPIRED5")
	assert.ErrorIs(t, err, domain.ErrInvalidCoupon)
}

func TestPrice_UnknownCoupon(t *testing.T) {
	svc, _, _ := newPricingFixture()

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 1}}, "NOPE")
	assert.ErrorIs(t, err, domain.ErrInvalidCoupon)
}

func TestPrice_ScopedCouponOtherUser(t *testing.T) {
	svc, _, _ := newPricingFixture()

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 1}}, "PERSONAL15")
	assert.ErrorIs(t, err, domain.ErrInvalidCoupon)
}

func TestPrice_CouponStoreFailure(t *testing.T) {
	svc, _, coupons := newPricingFixture()
	coupons.findErr = domain.ErrUpstreamUnavailable

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 1}}, "SAVE10")
	require.Error(t, err)
	// A connectivity failure must not masquerade as a coupon rejection.
	assert.NotErrorIs(t, err, domain.ErrInvalidCoupon)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestPrice_EmptyCart(t *testing.T) {
	svc, _, _ := newPricingFixture()

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{}, "")
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.IsZero())
	assert.True(t, quote.Total.IsZero())
	assert.True(t, quote.Savings.IsZero())
}

func TestPrice_UnknownProduct(t *testing.T) {
	svc, _, _ := newPricingFixture()

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "ghost", Quantity: 1}}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPrice_InvalidQuantity(t *testing.T) {
	svc, _, _ := newPricingFixture()

	_, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 0}}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestPrice_IgnoresClientPrices(t *testing.T) {
	// The quote must reflect catalog prices even after a catalog update,
	// not whatever the client last saw.
	svc, catalog, _ := newPricingFixture()

	newPrice := decimal.RequireFromString("750")
	_, err := catalog.Update(context.Background(), "prod-a", domain.ProductUpdate{Price: &newPrice})
	require.NoError(t, err)

	quote, err := svc.Price(context.Background(), "user-1", domain.Cart{{ProductID: "prod-a", Quantity: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "750", quote.Subtotal.String())
}
