package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentGateway is the external payment-session API consumed by checkout
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input models.CheckoutSessionInput) (*models.CheckoutSession, error)
	CreatePercentCoupon(ctx context.Context, percentOff float64) (string, error)
	GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error)
}

// PaymentController orchestrates checkout session creation and the
// success-callback reconciliation
type PaymentController struct {
	Gateway PaymentGateway
	Orders  *mongo.Collection
	Coupons *mongo.Collection
	Users   *mongo.Collection
	Email   *utils.EmailService
	Cfg     *utils.Config
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(client *mongo.Client, gateway PaymentGateway, email *utils.EmailService, cfg *utils.Config) *PaymentController {
	db := client.Database(cfg.MongoDatabase)
	return &PaymentController{
		Gateway: gateway,
		Orders:  db.Collection("orders"),
		Coupons: db.Collection("coupons"),
		Users:   db.Collection("users"),
		Email:   email,
		Cfg:     cfg,
	}
}

type checkoutProduct struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// metadataProduct is the flat per-line snapshot round-tripped through the
// payment provider's metadata channel
type metadataProduct struct {
	ID       string  `json:"id"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

var oneHundred = decimal.NewFromInt(100)

// unitAmountMinor converts a major-unit price to minor units, rounding per
// unit. Rounding happens before multiplication by quantity; order totals
// depend on this.
func unitAmountMinor(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(oneHundred).Round(0).IntPart()
}

// discountMinor computes a percentage discount on a minor-unit total
func discountMinor(totalMinor int64, percentage float64) int64 {
	return decimal.NewFromInt(totalMinor).
		Mul(decimal.NewFromFloat(percentage)).
		Div(oneHundred).
		Round(0).
		IntPart()
}

// computeCheckoutLines builds provider line items and the pre-discount
// total in minor units. A missing quantity defaults to 1.
func computeCheckoutLines(products []checkoutProduct) ([]models.CheckoutLine, int64) {
	lines := make([]models.CheckoutLine, 0, len(products))
	var totalMinor int64
	for _, p := range products {
		quantity := p.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		unitMinor := unitAmountMinor(p.Price)
		totalMinor += unitMinor * quantity
		lines = append(lines, models.CheckoutLine{
			Name:            p.Name,
			ImageURL:        p.Image,
			UnitAmountMinor: unitMinor,
			Quantity:        quantity,
		})
	}
	return lines, totalMinor
}

// buildSessionMetadata flattens the reconciliation data into scalar
// strings; the provider only round-trips flat metadata
func buildSessionMetadata(userID, couponCode string, totalMinor int64, products []checkoutProduct) (map[string]string, error) {
	snapshots := make([]metadataProduct, 0, len(products))
	for _, p := range products {
		quantity := int(p.Quantity)
		if quantity <= 0 {
			quantity = 1
		}
		snapshots = append(snapshots, metadataProduct{ID: p.ID, Price: p.Price, Quantity: quantity})
	}
	encoded, err := json.Marshal(snapshots)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"user_id":     userID,
		"coupon_code": couponCode,
		"total_minor": strconv.FormatInt(totalMinor, 10),
		"products":    string(encoded),
	}, nil
}

// decodeMetadataProducts parses the product snapshot out of session
// metadata. The string comes back from an external system and is not
// trusted: every field is validated before an order line is built.
func decodeMetadataProducts(raw string) ([]models.OrderItem, error) {
	if raw == "" {
		return nil, errors.New("missing products metadata")
	}
	var decoded []metadataProduct
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("malformed products metadata: %w", err)
	}
	if len(decoded) == 0 {
		return nil, errors.New("empty products metadata")
	}

	items := make([]models.OrderItem, 0, len(decoded))
	for _, p := range decoded {
		productID, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q in metadata", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("negative price in metadata for product %q", p.ID)
		}
		if p.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity in metadata for product %q", p.ID)
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  p.Quantity,
			Price:     p.Price,
		})
	}
	return items, nil
}

// CreateCheckoutSession computes the cart total, applies a coupon if one
// validates, and creates the external checkout session
func (pc *PaymentController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := claimsUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input struct {
		Products   []checkoutProduct `json:"products"`
		CouponCode string            `json:"couponCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if len(input.Products) == 0 {
		respondError(w, http.StatusBadRequest, "Invalid products")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lines, totalMinor := computeCheckoutLines(input.Products)

	// Re-validate coupon ownership and expiry; an invalid or expired code
	// simply yields no discount and is not embedded in the metadata.
	couponCode := ""
	providerCouponID := ""
	if input.CouponCode != "" {
		var coupon models.Coupon
		err := pc.Coupons.FindOne(ctx, bson.M{
			"code":      input.CouponCode,
			"user_id":   userID,
			"is_active": true,
		}).Decode(&coupon)
		if err == nil {
			if coupon.Expired(time.Now()) {
				if _, err := pc.Coupons.UpdateOne(ctx, bson.M{"_id": coupon.ID}, bson.M{
					"$set": bson.M{"is_active": false},
				}); err != nil {
					log.Warn().Err(err).Str("code", coupon.Code).Msg("failed to expire coupon")
				}
			} else {
				totalMinor -= discountMinor(totalMinor, coupon.DiscountPercentage)
				providerCouponID, err = pc.Gateway.CreatePercentCoupon(ctx, coupon.DiscountPercentage)
				if err != nil {
					log.Error().Err(err).Msg("failed to create provider coupon")
					respondError(w, http.StatusBadGateway, "Error creating checkout session")
					return
				}
				couponCode = coupon.Code
			}
		}
	}

	metadata, err := buildSessionMetadata(userID.Hex(), couponCode, totalMinor, input.Products)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error encoding session metadata")
		return
	}

	session, err := pc.Gateway.CreateCheckoutSession(ctx, models.CheckoutSessionInput{
		Lines:    lines,
		CouponID: providerCouponID,
		Metadata: metadata,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create checkout session")
		respondError(w, http.StatusBadGateway, "Error creating checkout session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":   session.ID,
		"total_amount": float64(totalMinor) / 100,
	})
}

// CheckoutSuccess reconciles a paid checkout session into a persisted
// order, deactivates the used coupon and clears the cart. The unique index
// on stripe_session_id makes the duplicate guard hold under concurrent
// callbacks.
func (pc *PaymentController) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.SessionID == "" {
		respondError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	session, err := pc.Gateway.GetCheckoutSession(ctx, input.SessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", input.SessionID).Msg("failed to retrieve checkout session")
		respondError(w, http.StatusBadGateway, "Error retrieving checkout session")
		return
	}
	if !session.Paid {
		respondError(w, http.StatusPaymentRequired, "Payment not completed")
		return
	}

	var existing models.Order
	err = pc.Orders.FindOne(ctx, bson.M{"stripe_session_id": input.SessionID}).Decode(&existing)
	if err == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"message":  "Order already processed",
			"order_id": existing.ID.Hex(),
		})
		return
	}

	userID, err := primitive.ObjectIDFromHex(session.Metadata["user_id"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Invalid session metadata")
		return
	}

	if couponCode := session.Metadata["coupon_code"]; couponCode != "" {
		_, err := pc.Coupons.UpdateOne(ctx, bson.M{"code": couponCode, "user_id": userID}, bson.M{
			"$set": bson.M{"is_active": false},
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Error deactivating coupon")
			return
		}
	}

	items, err := decodeMetadataProducts(session.Metadata["products"])
	if err != nil {
		log.Error().Err(err).Str("session_id", input.SessionID).Msg("bad session metadata")
		respondError(w, http.StatusInternalServerError, "Invalid session metadata")
		return
	}

	totalMinor, err := strconv.ParseInt(session.Metadata["total_minor"], 10, 64)
	if err != nil || totalMinor < 0 {
		respondError(w, http.StatusInternalServerError, "Invalid session metadata")
		return
	}

	order := models.Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     float64(totalMinor) / 100,
		StripeSessionID: input.SessionID,
		CreatedAt:       time.Now(),
	}
	result, err := pc.Orders.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost the race against a concurrent callback
			if lookupErr := pc.Orders.FindOne(ctx, bson.M{"stripe_session_id": input.SessionID}).Decode(&existing); lookupErr == nil {
				respondJSON(w, http.StatusOK, map[string]interface{}{
					"success":  true,
					"message":  "Order already processed",
					"order_id": existing.ID.Hex(),
				})
				return
			}
		}
		respondError(w, http.StatusInternalServerError, "Error creating order")
		return
	}
	order.ID = result.InsertedID.(primitive.ObjectID)

	// Loyalty reward is issued on the confirmed paid total, not at
	// session-creation time
	if order.TotalAmount >= pc.Cfg.RewardThreshold {
		if _, err := IssueCoupon(ctx, pc.Coupons, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID.Hex()).Msg("failed to issue reward coupon")
		}
	}

	_, err = pc.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"cart_items": []models.CartItem{}},
	})
	if err != nil {
		// order exists, cart not cleared: surfaced as a server error with
		// no compensating action
		respondError(w, http.StatusInternalServerError, "Error clearing cart")
		return
	}

	if pc.Email != nil {
		var user models.User
		if err := pc.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
			go func(email, name string, order models.Order) {
				if err := pc.Email.SendOrderConfirmationEmail(email, name, order); err != nil {
					log.Warn().Err(err).Str("email", email).Msg("failed to send order confirmation")
				}
			}(user.Email, user.Name, order)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Order created successfully",
		"order_id": order.ID.Hex(),
	})
}

// GetOrders retrieves the caller's orders, newest first
func (pc *PaymentController) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := claimsUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := pc.Orders.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		respondError(w, http.StatusInternalServerError, "Error decoding orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}
