package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

// Mock CatalogRepository
type mockCatalogRepo struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	findErr   error
	findCalls int
	nextID    int
}

func newMockCatalogRepo(products ...domain.Product) *mockCatalogRepo {
	m := &mockCatalogRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalogRepo) Find(ctx context.Context, filter port.CatalogFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}

	var out []domain.Product
	for _, p := range m.products {
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalogRepo) FindByID(ctx context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockCatalogRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = fmt.Sprintf("prod-%d", m.nextID)
	m.products[p.ID] = p
	return p, nil
}

func (m *mockCatalogRepo) Update(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.IsFeatured != nil {
		p.IsFeatured = *upd.IsFeatured
	}
	m.products[id] = p
	return p, nil
}

func (m *mockCatalogRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *mockCatalogRepo) Sample(ctx context.Context, n int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if len(out) == n {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

// Mock CouponRepository
type mockCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]domain.Coupon
	findErr error
}

func newMockCouponRepo(coupons ...domain.Coupon) *mockCouponRepo {
	m := &mockCouponRepo{coupons: make(map[string]domain.Coupon)}
	for _, c := range coupons {
		m.coupons[c.Code] = c
	}
	return m
}

func (m *mockCouponRepo) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return domain.Coupon{}, m.findErr
	}
	c, ok := m.coupons[code]
	if !ok {
		return domain.Coupon{}, fmt.Errorf("coupon %s: %w", code, domain.ErrNotFound)
	}
	return c, nil
}

func (m *mockCouponRepo) Create(ctx context.Context, c domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.Code] = c
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu       sync.Mutex
	entries  map[string][]byte
	idem     map[string]bool
	getErr   error
	setErr   error
	setCalls int
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		entries: make(map[string][]byte),
		idem:    make(map[string]bool),
	}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return raw, nil
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}
	m.setCalls++
	m.entries[key] = value
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idem[key] {
		return false, nil
	}
	m.idem[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idem, key)
	return nil
}

// Mock OrderRepository
type mockOrderRepo struct {
	mu              sync.Mutex
	orders          []domain.Order
	createErr       error
	createCalls     int
	inconsistencies []domain.Inconsistency
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{}
}

func (m *mockOrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createErr != nil {
		return domain.Order{}, m.createErr
	}
	m.orders = append(m.orders, order)
	return order, nil
}

func (m *mockOrderRepo) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderOrSessionID string, status domain.PaymentStatus) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range m.orders {
		if o.ID != orderOrSessionID && o.GatewaySessionID != orderOrSessionID {
			continue
		}
		if o.PaymentStatus == domain.PaymentStatusPending {
			m.orders[i].PaymentStatus = status
		}
		return m.orders[i], nil
	}
	return domain.Order{}, fmt.Errorf("order %s: %w", orderOrSessionID, domain.ErrNotFound)
}

func (m *mockOrderRepo) RecordInconsistency(ctx context.Context, rec domain.Inconsistency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inconsistencies = append(m.inconsistencies, rec)
	return nil
}

// Mock PaymentGateway
type mockGateway struct {
	mu          sync.Mutex
	session     port.HostedSession
	createErr   error
	createCalls int
	delay       time.Duration
	voidErr     error
	voidCalls   int
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		session: port.HostedSession{SessionID: "sess-1", RedirectURL: "https://gateway.example/redirect/sess-1"},
	}
}

func (m *mockGateway) CreateHostedSession(ctx context.Context, lines []domain.OrderItem, total decimal.Decimal, meta port.SessionMetadata) (port.HostedSession, error) {
	m.mu.Lock()
	m.createCalls++
	delay := m.delay
	err := m.createErr
	session := m.session
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return port.HostedSession{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return port.HostedSession{}, err
	}
	return session, nil
}

func (m *mockGateway) VoidSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.voidCalls++
	return m.voidErr
}

// Mock AssetStore
type mockAssetStore struct {
	mu         sync.Mutex
	uploads    []string
	destroys   []string
	uploadErr  error
	destroyErr error
}

func (m *mockAssetStore) Upload(ctx context.Context, image, folder string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	ref := fmt.Sprintf("https://assets.example/%s/img-%d.png", folder, len(m.uploads)+1)
	m.uploads = append(m.uploads, ref)
	return ref, nil
}

func (m *mockAssetStore) Destroy(ctx context.Context, assetRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyErr != nil {
		return m.destroyErr
	}
	m.destroys = append(m.destroys, assetRef)
	return nil
}
