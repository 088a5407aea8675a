package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user in the system. The cart is embedded in the user
// document and mutated in place on every cart operation.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      string             `bson:"role" json:"role"` // "customer" or "admin"
	CartItems []CartItem         `bson:"cart_items" json:"cart_items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
