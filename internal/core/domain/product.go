package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string // asset reference owned by the asset host
	Category    string
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductUpdate carries a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Category    *string
	IsFeatured  *bool
}
