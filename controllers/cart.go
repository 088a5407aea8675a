package controllers

import (
	"context"
	"encoding/json"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CartController handles cart operations on the user's embedded cart
type CartController struct {
	Users    *mongo.Collection
	Products *mongo.Collection
}

// NewCartController creates a new CartController
func NewCartController(client *mongo.Client, database string) *CartController {
	db := client.Database(database)
	return &CartController{
		Users:    db.Collection("users"),
		Products: db.Collection("products"),
	}
}

// addCartItem increments the quantity of an existing line or appends a new
// line with quantity 1
func addCartItem(items []models.CartItem, productID primitive.ObjectID) []models.CartItem {
	for i, item := range items {
		if item.ProductID == productID {
			items[i].Quantity++
			return items
		}
	}
	return append(items, models.CartItem{ProductID: productID, Quantity: 1})
}

// removeCartItem filters a line out; removing an absent line is a no-op
func removeCartItem(items []models.CartItem, productID primitive.ObjectID) []models.CartItem {
	updated := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			updated = append(updated, item)
		}
	}
	return updated
}

// setCartItemQuantity sets an absolute quantity. Quantity 0 removes the
// line. The second return reports whether the line was present.
func setCartItemQuantity(items []models.CartItem, productID primitive.ObjectID, quantity int) ([]models.CartItem, bool) {
	for i, item := range items {
		if item.ProductID != productID {
			continue
		}
		if quantity == 0 {
			return append(items[:i], items[i+1:]...), true
		}
		items[i].Quantity = quantity
		return items, true
	}
	return items, false
}

func (cc *CartController) findUser(ctx context.Context, r *http.Request) (*models.User, bool) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return nil, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, false
	}
	var user models.User
	if err := cc.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, false
	}
	return &user, true
}

func (cc *CartController) saveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	_, err := cc.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"cart_items": items},
	})
	return err
}

// AddToCart adds a product to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, ok := cc.findUser(ctx, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized: User not found")
		return
	}

	var product models.Product
	if err := cc.Products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	items := addCartItem(user.CartItems, productID)
	if err := cc.saveCart(ctx, user.ID, items); err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"cart_items": items})
}

// RemoveFromCart removes a product from the cart; with no product id in
// the body the whole cart is cleared
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID string `json:"product_id"`
	}
	// body is optional
	json.NewDecoder(r.Body).Decode(&input)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, ok := cc.findUser(ctx, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized: User not found")
		return
	}

	items := []models.CartItem{}
	if input.ProductID != "" {
		productID, err := primitive.ObjectIDFromHex(input.ProductID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		items = removeCartItem(user.CartItems, productID)
	}

	if err := cc.saveCart(ctx, user.ID, items); err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"cart_items": items})
}

// UpdateQuantity sets an absolute quantity for a cart line
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	productID, err := primitive.ObjectIDFromHex(params["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "Quantity cannot be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, ok := cc.findUser(ctx, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized: User not found")
		return
	}

	items, found := setCartItemQuantity(user.CartItems, productID, input.Quantity)
	if !found {
		respondError(w, http.StatusNotFound, "Product not found in cart")
		return
	}

	if err := cc.saveCart(ctx, user.ID, items); err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"cart_items": items})
}

// GetCart returns the cart with product references expanded to current
// product snapshots. Lines whose product no longer exists are skipped.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, ok := cc.findUser(ctx, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized: User not found")
		return
	}

	lines := []models.CartLine{}
	for _, item := range user.CartItems {
		var product models.Product
		if err := cc.Products.FindOne(ctx, bson.M{"_id": item.ProductID}).Decode(&product); err != nil {
			continue
		}
		lines = append(lines, models.CartLine{Product: product, Quantity: item.Quantity})
	}

	respondJSON(w, http.StatusOK, lines)
}
