package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

const (
	idempotencyKeyPrefix = "checkout:"
	maxPersistRetries    = 3
)

type CheckoutService struct {
	pricing *PricingService
	orders  port.OrderRepository
	cache   port.CacheRepository
	gateway port.PaymentGateway
	log     *slog.Logger

	gatewayTimeout time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
	newBackoff     func() backoff.BackOff
}

func NewCheckoutService(pricing *PricingService, orders port.OrderRepository, cache port.CacheRepository, gateway port.PaymentGateway, log *slog.Logger, gatewayTimeout, idempotencyTTL time.Duration) *CheckoutService {
	return &CheckoutService{
		pricing:        pricing,
		orders:         orders,
		cache:          cache,
		gateway:        gateway,
		log:            log,
		gatewayTimeout: gatewayTimeout,
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
		newBackoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxPersistRetries)
		},
	}
}

type CheckoutInput struct {
	UserID     string
	Cart       domain.Cart
	CouponCode string
	// IdempotencyKey is the caller-supplied dedup token. When empty the
	// attempt is keyed on the user plus a hash of the cart content instead.
	IdempotencyKey string
}

// GatewayCheckout is the result of the hosted-payment path: the pending order
// plus the redirect the client must follow to complete payment.
type GatewayCheckout struct {
	Order       domain.Order
	SessionID   string
	RedirectURL string
}

// begin runs the steps shared by both settlement paths, in order: cart
// validation, idempotency reservation, price re-validation and discounting.
// On any failure after the reservation the key is released so a genuine
// retry can proceed.
func (s *CheckoutService) begin(ctx context.Context, in CheckoutInput) (domain.Quote, string, error) {
	if len(in.Cart) == 0 {
		return domain.Quote{}, "", domain.ErrEmptyCart
	}

	token := in.IdempotencyKey
	if token == "" {
		token = in.Cart.Fingerprint()
	}
	key := idempotencyKeyPrefix + in.UserID + ":" + token

	ok, err := s.cache.SetIdempotency(ctx, key, s.idempotencyTTL)
	if err != nil {
		return domain.Quote{}, "", fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return domain.Quote{}, "", domain.ErrDuplicateRequest
	}

	quote, err := s.pricing.Price(ctx, in.UserID, in.Cart, in.CouponCode)
	if err != nil {
		s.release(ctx, key)
		return domain.Quote{}, "", err
	}

	return quote, key, nil
}

func (s *CheckoutService) release(ctx context.Context, key string) {
	if err := s.cache.ReleaseIdempotency(ctx, key); err != nil {
		s.log.Warn("idempotency key release failed", "key", key, "err", err)
	}
}

// CheckoutWithGateway prices the cart, creates a hosted payment session and
// persists a pending order keyed to the session. The order transitions to
// paid/failed later through MarkSettled. No order exists until the session
// was created; a persistence failure afterwards voids the session.
func (s *CheckoutService) CheckoutWithGateway(ctx context.Context, in CheckoutInput) (GatewayCheckout, error) {
	quote, key, err := s.begin(ctx, in)
	if err != nil {
		return GatewayCheckout{}, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	session, err := s.gateway.CreateHostedSession(gctx, quote.Lines, quote.Total, port.SessionMetadata{
		UserID:         in.UserID,
		CouponCode:     quote.CouponCode,
		IdempotencyKey: key,
	})
	if err != nil {
		s.release(ctx, key)
		if errors.Is(err, context.DeadlineExceeded) {
			return GatewayCheckout{}, fmt.Errorf("create hosted session: %w", domain.ErrGatewayTimeout)
		}
		return GatewayCheckout{}, fmt.Errorf("create hosted session: %w", err)
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:               uuid.New().String(),
		UserID:           in.UserID,
		Items:            quote.Lines,
		TotalAmount:      quote.Total,
		PaymentStatus:    domain.PaymentStatusPending,
		CouponCode:       quote.CouponCode,
		GatewaySessionID: session.SessionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.persistOrder(ctx, order)
	if err != nil {
		return GatewayCheckout{}, s.compensate(ctx, key, order, err)
	}

	return GatewayCheckout{
		Order:       created,
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// CheckoutCashOnDelivery creates the order synchronously with no gateway
// involvement.
func (s *CheckoutService) CheckoutCashOnDelivery(ctx context.Context, in CheckoutInput) (domain.Order, error) {
	quote, key, err := s.begin(ctx, in)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:            uuid.New().String(),
		UserID:        in.UserID,
		Items:         quote.Lines,
		TotalAmount:   quote.Total,
		PaymentStatus: domain.PaymentStatusCashOnDelivery,
		CouponCode:    quote.CouponCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.persistOrder(ctx, order)
	if err != nil {
		s.release(ctx, key)
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	return created, nil
}

// persistOrder writes the order with bounded exponential backoff; transient
// store failures are retried, everything else surfaces immediately.
func (s *CheckoutService) persistOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var created domain.Order

	op := func() error {
		var err error
		created, err = s.orders.Create(ctx, order)
		if err != nil && !errors.Is(err, domain.ErrUpstreamUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(s.newBackoff(), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// compensate handles the one partial-state case: the gateway session exists
// but the order write failed. The session is voided; if that also fails the
// inconsistency is recorded for manual reconciliation and never dropped.
func (s *CheckoutService) compensate(ctx context.Context, key string, order domain.Order, cause error) error {
	s.log.Error("order persistence failed after session creation",
		"session_id", order.GatewaySessionID, "user_id", order.UserID, "err", cause)

	if err := s.gateway.VoidSession(ctx, order.GatewaySessionID); err != nil {
		s.log.Error("CRITICAL: session void failed, recording inconsistency",
			"session_id", order.GatewaySessionID, "err", err)

		rec := domain.Inconsistency{
			SessionID: order.GatewaySessionID,
			UserID:    order.UserID,
			Amount:    order.TotalAmount,
			Detail:    fmt.Sprintf("order write failed (%v), session void failed (%v)", cause, err),
			CreatedAt: s.now().UTC(),
		}
		if rerr := s.orders.RecordInconsistency(ctx, rec); rerr != nil {
			s.log.Error("CRITICAL: inconsistency record failed", "session_id", order.GatewaySessionID, "err", rerr)
		}
		return fmt.Errorf("%w: session %s", domain.ErrInconsistent, order.GatewaySessionID)
	}

	s.release(ctx, key)
	return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, cause)
}

// MarkSettled applies the gateway's reconciliation signal. Idempotent by
// contract of the order store: repeating the same signal is a no-op.
func (s *CheckoutService) MarkSettled(ctx context.Context, sessionID string, status domain.PaymentStatus) (domain.Order, error) {
	if status != domain.PaymentStatusPaid && status != domain.PaymentStatusFailed {
		return domain.Order{}, fmt.Errorf("unsupported settlement status %q", status)
	}
	return s.orders.UpdateStatus(ctx, sessionID, status)
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}
