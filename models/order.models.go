package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is an immutable line snapshot. Price is captured at
// session-creation time, independent of later catalog changes.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Order represents a completed purchase. StripeSessionID carries a unique
// index so a checkout session materializes at most one order.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	StripeSessionID string             `bson:"stripe_session_id" json:"stripe_session_id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
