package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

type MongoCoupons struct {
	col *mongo.Collection
}

func NewMongoCoupons(db *mongo.Database) *MongoCoupons {
	return &MongoCoupons{col: db.Collection("coupons")}
}

type couponDoc struct {
	Code               string    `bson:"_id"`
	DiscountPercentage int       `bson:"discountPercentage"`
	ExpiresAt          time.Time `bson:"expiresAt"`
	Active             bool      `bson:"active"`
	UserID             string    `bson:"userId,omitempty"`
	CreatedAt          time.Time `bson:"createdAt"`
}

func (m *MongoCoupons) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	var doc couponDoc
	err := m.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Coupon{}, fmt.Errorf("coupon %s: %w", code, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("%w: find coupon: %v", domain.ErrUpstreamUnavailable, err)
	}

	return domain.Coupon{
		Code:               doc.Code,
		DiscountPercentage: doc.DiscountPercentage,
		ExpiresAt:          doc.ExpiresAt,
		Active:             doc.Active,
		UserID:             doc.UserID,
		CreatedAt:          doc.CreatedAt,
	}, nil
}

func (m *MongoCoupons) Create(ctx context.Context, c domain.Coupon) error {
	doc := couponDoc{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		ExpiresAt:          c.ExpiresAt,
		Active:             c.Active,
		UserID:             c.UserID,
		CreatedAt:          c.CreatedAt,
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: insert coupon: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
