package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon is a per-user discount code. A user has at most one active coupon
// at a time; old coupons are deleted before a new one is issued.
type Coupon struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code               string             `bson:"code" json:"code"`
	DiscountPercentage float64            `bson:"discount_percentage" json:"discount_percentage"`
	ExpirationDate     time.Time          `bson:"expiration_date" json:"expiration_date"`
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
}

// Expired reports whether the coupon's validity window has passed at the
// given instant. Expiry is enforced lazily at read time: callers flag the
// coupon inactive when this returns true.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpirationDate.Before(now)
}
