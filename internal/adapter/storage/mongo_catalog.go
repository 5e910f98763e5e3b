package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

type MongoCatalog struct {
	col *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{col: db.Collection("products")}
}

// productDoc is the persisted shape. Prices are stored as decimal strings so
// no float rounding ever reaches the database.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       string             `bson:"price"`
	Image       string             `bson:"image"`
	Category    string             `bson:"category"`
	IsFeatured  bool               `bson:"isFeatured"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDoc) toDomain() (domain.Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of product %s: %w", d.ID.Hex(), err)
	}
	return domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Image:       d.Image,
		Category:    d.Category,
		IsFeatured:  d.IsFeatured,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (m *MongoCatalog) Find(ctx context.Context, filter port.CatalogFilter) ([]domain.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured != nil {
		query["isFeatured"] = *filter.Featured
	}

	cur, err := m.col.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: find products: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cur.Close(ctx)

	return decodeProducts(ctx, cur)
}

func (m *MongoCatalog) FindByID(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	var doc productDoc
	err = m.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: find product: %v", domain.ErrUpstreamUnavailable, err)
	}
	return doc.toDomain()
}

func (m *MongoCatalog) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Image:       p.Image,
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	res, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: insert product: %v", domain.ErrUpstreamUnavailable, err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return p, nil
}

func (m *MongoCatalog) Update(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = upd.Price.String()
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.IsFeatured != nil {
		set["isFeatured"] = *upd.IsFeatured
	}

	var doc productDoc
	err = m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: update product: %v", domain.ErrUpstreamUnavailable, err)
	}
	return doc.toDomain()
}

func (m *MongoCatalog) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	res, err := m.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%w: delete product: %v", domain.ErrUpstreamUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (m *MongoCatalog) Sample(ctx context.Context, n int) ([]domain.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": n}}},
	}

	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: sample products: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cur.Close(ctx)

	return decodeProducts(ctx, cur)
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]domain.Product, error) {
	var products []domain.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate products: %v", domain.ErrUpstreamUnavailable, err)
	}
	return products, nil
}
