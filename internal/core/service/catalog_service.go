package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

// featuredCacheKey is the single fixed key for the derived featured-products
// view. Every writer unconditionally overwrites it with a freshly computed
// list, so no locking is needed; last writer wins.
const featuredCacheKey = "featured_products"

type CatalogService struct {
	catalog port.CatalogRepository
	cache   port.CacheRepository
	assets  port.AssetStore
	log     *slog.Logger

	cacheTTL     time.Duration
	cacheTimeout time.Duration

	destroyQueue chan string
}

func NewCatalogService(catalog port.CatalogRepository, cache port.CacheRepository, assets port.AssetStore, log *slog.Logger, cacheTTL, cacheTimeout time.Duration, queueSize int) *CatalogService {
	return &CatalogService{
		catalog:      catalog,
		cache:        cache,
		assets:       assets,
		log:          log,
		cacheTTL:     cacheTTL,
		cacheTimeout: cacheTimeout,
		destroyQueue: make(chan string, queueSize),
	}
}

// GetFeatured returns the currently-featured products. Cache-aside: the cache
// is consulted first under a short timeout; on a miss the catalog store is
// queried and the result is written back with the configured TTL. A cache
// failure never fails the read, it falls back to a direct store query.
func (s *CatalogService) GetFeatured(ctx context.Context) ([]domain.Product, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	raw, err := s.cache.Get(cctx, featuredCacheKey)
	if err == nil {
		var products []domain.Product
		uerr := json.Unmarshal(raw, &products)
		if uerr == nil {
			return products, nil
		}
		s.log.Warn("featured cache entry corrupt, recomputing", "err", uerr)
	} else if !errors.Is(err, port.ErrCacheMiss) {
		s.log.Warn("featured cache read failed, falling back to store", "err", err)
		return s.queryFeatured(ctx)
	}

	products, err := s.queryFeatured(ctx)
	if err != nil {
		return nil, err
	}

	if raw, merr := json.Marshal(products); merr == nil {
		if serr := s.cache.Set(ctx, featuredCacheKey, raw, s.cacheTTL); serr != nil {
			s.log.Warn("featured cache write failed", "err", serr)
		}
	}

	return products, nil
}

func (s *CatalogService) queryFeatured(ctx context.Context) ([]domain.Product, error) {
	featured := true
	products, err := s.catalog.Find(ctx, port.CatalogFilter{Featured: &featured})
	if err != nil {
		return nil, fmt.Errorf("query featured products: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no featured products: %w", domain.ErrNotFound)
	}
	return products, nil
}

// InvalidateFeatured recomputes the featured list from the catalog store and
// overwrites the cache entry with a fresh TTL. Mutation paths await it so the
// staleness window for their writes is zero. A cache write failure is
// returned for logging but must not fail the triggering mutation; the TTL
// expiry repairs the view eventually.
func (s *CatalogService) InvalidateFeatured(ctx context.Context) error {
	featured := true
	products, err := s.catalog.Find(ctx, port.CatalogFilter{Featured: &featured})
	if err != nil {
		return fmt.Errorf("recompute featured products: %w", err)
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("serialize featured products: %w", err)
	}

	if err := s.cache.Set(ctx, featuredCacheKey, raw, s.cacheTTL); err != nil {
		return fmt.Errorf("overwrite featured cache: %w", err)
	}
	return nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.Find(ctx, port.CatalogFilter{})
}

func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.catalog.Find(ctx, port.CatalogFilter{Category: category})
}

// Recommendations returns a uniform random sample of n products.
func (s *CatalogService) Recommendations(ctx context.Context, n int) ([]domain.Product, error) {
	return s.catalog.Sample(ctx, n)
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.catalog.FindByID(ctx, id)
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string // data URI or URL; uploaded to the asset host when set
}

func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	var assetRef string
	if in.Image != "" {
		ref, err := s.assets.Upload(ctx, in.Image, "products")
		if err != nil {
			return domain.Product{}, fmt.Errorf("upload product image: %w", err)
		}
		assetRef = ref
	}

	now := time.Now().UTC()
	product, err := s.catalog.Create(ctx, domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       assetRef,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Delete removes a product. The image asset release is best effort and runs
// through the destroy queue; the record delete and cache invalidation are not
// held up by it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if product.Image != "" {
		s.destroyQueue <- product.Image
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if product.IsFeatured {
		if err := s.InvalidateFeatured(ctx); err != nil {
			s.log.Warn("featured cache invalidation failed after delete", "product_id", id, "err", err)
		}
	}
	return nil
}

// ToggleFeatured flips the flag and awaits the cache invalidation before
// returning, so the next read reflects the toggle immediately.
func (s *CatalogService) ToggleFeatured(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	featured := !product.IsFeatured
	updated, err := s.catalog.Update(ctx, id, domain.ProductUpdate{IsFeatured: &featured})
	if err != nil {
		return domain.Product{}, fmt.Errorf("toggle featured: %w", err)
	}

	if err := s.InvalidateFeatured(ctx); err != nil {
		s.log.Warn("featured cache invalidation failed after toggle", "product_id", id, "err", err)
	}
	return updated, nil
}

// AssetDestroyQueue exposes the pending asset releases; main drains it with
// a worker pool.
func (s *CatalogService) AssetDestroyQueue() <-chan string {
	return s.destroyQueue
}

func (s *CatalogService) Close() {
	close(s.destroyQueue)
}
