package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cosmoconnect/storefront/internal/core/domain"
)

type MongoOrders struct {
	orders          *mongo.Collection
	reconciliations *mongo.Collection
}

func NewMongoOrders(db *mongo.Database) *MongoOrders {
	return &MongoOrders{
		orders:          db.Collection("orders"),
		reconciliations: db.Collection("reconciliations"),
	}
}

type orderItemDoc struct {
	ProductID string `bson:"productId"`
	Name      string `bson:"name"`
	UnitPrice string `bson:"unitPrice"`
	Quantity  int    `bson:"quantity"`
}

type orderDoc struct {
	ID               string         `bson:"_id"`
	UserID           string         `bson:"userId"`
	Items            []orderItemDoc `bson:"items"`
	TotalAmount      string         `bson:"totalAmount"`
	PaymentStatus    string         `bson:"paymentStatus"`
	CouponCode       string         `bson:"couponCode,omitempty"`
	GatewaySessionID string         `bson:"gatewaySessionId,omitempty"`
	CreatedAt        time.Time      `bson:"createdAt"`
	UpdatedAt        time.Time      `bson:"updatedAt"`
}

func orderToDoc(o domain.Order) orderDoc {
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		}
	}
	return orderDoc{
		ID:               o.ID,
		UserID:           o.UserID,
		Items:            items,
		TotalAmount:      o.TotalAmount.String(),
		PaymentStatus:    string(o.PaymentStatus),
		CouponCode:       o.CouponCode,
		GatewaySessionID: o.GatewaySessionID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func (d orderDoc) toDomain() (domain.Order, error) {
	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse total of order %s: %w", d.ID, err)
	}

	items := make([]domain.OrderItem, len(d.Items))
	for i, it := range d.Items {
		price, perr := decimal.NewFromString(it.UnitPrice)
		if perr != nil {
			return domain.Order{}, fmt.Errorf("parse item price of order %s: %w", d.ID, perr)
		}
		items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: price,
			Quantity:  it.Quantity,
		}
	}

	return domain.Order{
		ID:               d.ID,
		UserID:           d.UserID,
		Items:            items,
		TotalAmount:      total,
		PaymentStatus:    domain.PaymentStatus(d.PaymentStatus),
		CouponCode:       d.CouponCode,
		GatewaySessionID: d.GatewaySessionID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func (m *MongoOrders) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if _, err := m.orders.InsertOne(ctx, orderToDoc(order)); err != nil {
		return domain.Order{}, fmt.Errorf("%w: insert order: %v", domain.ErrUpstreamUnavailable, err)
	}
	return order, nil
}

func (m *MongoOrders) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	cur, err := m.orders.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: find orders: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer cur.Close(ctx)

	var orders []domain.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		o, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate orders: %v", domain.ErrUpstreamUnavailable, err)
	}
	return orders, nil
}

// UpdateStatus transitions the order matched by its id or its gateway session
// id. Only pending orders are mutated; a repeat of the same signal finds the
// order already terminal and returns it unchanged, which makes the operation
// idempotent.
func (m *MongoOrders) UpdateStatus(ctx context.Context, orderOrSessionID string, status domain.PaymentStatus) (domain.Order, error) {
	match := bson.M{"$or": bson.A{
		bson.M{"_id": orderOrSessionID},
		bson.M{"gatewaySessionId": orderOrSessionID},
	}}

	filter := bson.M{
		"$and": bson.A{match, bson.M{"paymentStatus": string(domain.PaymentStatusPending)}},
	}

	var doc orderDoc
	err := m.orders.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": bson.M{"paymentStatus": string(status), "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, fmt.Errorf("%w: update order status: %v", domain.ErrUpstreamUnavailable, err)
	}

	// No pending order matched: either the signal is a repeat or the order
	// does not exist at all.
	err = m.orders.FindOne(ctx, match).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderOrSessionID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: find order: %v", domain.ErrUpstreamUnavailable, err)
	}
	return doc.toDomain()
}

func (m *MongoOrders) RecordInconsistency(ctx context.Context, rec domain.Inconsistency) error {
	doc := bson.M{
		"sessionId": rec.SessionID,
		"userId":    rec.UserID,
		"amount":    rec.Amount.String(),
		"detail":    rec.Detail,
		"createdAt": rec.CreatedAt,
	}
	if _, err := m.reconciliations.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: record inconsistency: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
