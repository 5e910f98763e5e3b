package domain

import "time"

type Coupon struct {
	Code               string
	DiscountPercentage int // 0-100
	ExpiresAt          time.Time
	Active             bool
	// UserID restricts the coupon to a single user when non-empty.
	UserID    string
	CreatedAt time.Time
}

func (c Coupon) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// UsableBy reports whether the coupon can be applied by userID at the given
// time. An expired, inactive or out-of-scope coupon is never usable.
func (c Coupon) UsableBy(userID string, now time.Time) bool {
	if !c.Active || c.Expired(now) {
		return false
	}
	if c.UserID != "" && c.UserID != userID {
		return false
	}
	return true
}
