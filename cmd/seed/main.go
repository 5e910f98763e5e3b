// Seeds the catalog and coupon collections with development data.
package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cosmoconnect/storefront/internal/adapter/storage"
	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/pkg/config"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect mongo: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)

	catalog := storage.NewMongoCatalog(db)
	coupons := storage.NewMongoCoupons(db)

	now := time.Now().UTC()

	products := []domain.Product{
		{Name: "Nebula Hoodie", Description: "Heavyweight cotton hoodie", Price: decimal.NewFromInt(1499), Category: "clothing", IsFeatured: true, CreatedAt: now, UpdatedAt: now},
		{Name: "Orbit Mug", Description: "Ceramic mug, 350ml", Price: decimal.NewFromInt(349), Category: "homeware", IsFeatured: true, CreatedAt: now, UpdatedAt: now},
		{Name: "Comet Sneakers", Description: "Lightweight running shoes", Price: decimal.NewFromInt(2999), Category: "shoes", CreatedAt: now, UpdatedAt: now},
		{Name: "Star Chart Poster", Description: "A2 print", Price: decimal.RequireFromString("199.50"), Category: "homeware", CreatedAt: now, UpdatedAt: now},
	}
	for _, p := range products {
		created, err := catalog.Create(ctx, p)
		if err != nil {
			log.Fatalf("failed to seed product %s: %v", p.Name, err)
		}
		log.Printf("seeded product %s (%s)", created.Name, created.ID)
	}

	seedCoupons := []domain.Coupon{
		{Code: "SAVE10", DiscountPercentage: 10, ExpiresAt: now.AddDate(1, 0, 0), Active: true, CreatedAt: now},
		{Code: "WELCOME20", DiscountPercentage: 20, ExpiresAt: now.AddDate(0, 1, 0), Active: true, CreatedAt: now},
		{Code: "EXPIRED5", DiscountPercentage: 5, ExpiresAt: now.AddDate(0, 0, -1), Active: true, CreatedAt: now},
	}
	for _, c := range seedCoupons {
		if err := coupons.Create(ctx, c); err != nil {
			log.Printf("skipping coupon %s: %v", c.Code, err)
			continue
		}
		log.Printf("seeded coupon %s", c.Code)
	}

	log.Println("seed complete")
}
