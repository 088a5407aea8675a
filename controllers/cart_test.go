package controllers

import (
	"go-storefront/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cartWith(items ...models.CartItem) []models.CartItem {
	return items
}

func TestAddCartItem_AppendsNewLine(t *testing.T) {
	productID := primitive.NewObjectID()

	items := addCartItem(nil, productID)

	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddCartItem_IncrementsExistingLine(t *testing.T) {
	productID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	items := cartWith(
		models.CartItem{ProductID: productID, Quantity: 2},
		models.CartItem{ProductID: other, Quantity: 1},
	)

	items = addCartItem(items, productID)

	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestRemoveCartItem_FiltersLine(t *testing.T) {
	productID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	items := cartWith(
		models.CartItem{ProductID: productID, Quantity: 2},
		models.CartItem{ProductID: other, Quantity: 1},
	)

	items = removeCartItem(items, productID)

	require.Len(t, items, 1)
	assert.Equal(t, other, items[0].ProductID)
}

func TestRemoveCartItem_AbsentLineIsNoOp(t *testing.T) {
	items := cartWith(models.CartItem{ProductID: primitive.NewObjectID(), Quantity: 1})

	updated := removeCartItem(items, primitive.NewObjectID())

	assert.Equal(t, items, updated)
}

func TestSetCartItemQuantity_Absolute(t *testing.T) {
	productID := primitive.NewObjectID()
	items := cartWith(models.CartItem{ProductID: productID, Quantity: 2})

	items, found := setCartItemQuantity(items, productID, 7)

	require.True(t, found)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestSetCartItemQuantity_SameValueIsNoOp(t *testing.T) {
	productID := primitive.NewObjectID()
	items := cartWith(models.CartItem{ProductID: productID, Quantity: 2})

	items, found := setCartItemQuantity(items, productID, 2)

	require.True(t, found)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSetCartItemQuantity_ZeroRemovesLine(t *testing.T) {
	productID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	items := cartWith(
		models.CartItem{ProductID: productID, Quantity: 2},
		models.CartItem{ProductID: other, Quantity: 5},
	)

	items, found := setCartItemQuantity(items, productID, 0)

	require.True(t, found)
	require.Len(t, items, 1)
	assert.Equal(t, other, items[0].ProductID)
}

func TestSetCartItemQuantity_MissingLine(t *testing.T) {
	items := cartWith(models.CartItem{ProductID: primitive.NewObjectID(), Quantity: 1})

	_, found := setCartItemQuantity(items, primitive.NewObjectID(), 3)

	assert.False(t, found)
}
