package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents a line in a user's embedded cart
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// CartLine is a cart item with its product reference expanded to the
// current product snapshot
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
