package controllers

import (
	"context"
	"encoding/json"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	rewardDiscountPercentage = 10.0
	couponValidity           = 30 * 24 * time.Hour
)

// CouponController handles coupon reads and validation
type CouponController struct {
	Coupons *mongo.Collection
}

// NewCouponController creates a new CouponController
func NewCouponController(client *mongo.Client, database string) *CouponController {
	return &CouponController{
		Coupons: client.Database(database).Collection("coupons"),
	}
}

func generateCouponCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "GIFT" + suffix[:10]
}

// IssueCoupon enforces the at-most-one-coupon invariant by deleting any
// coupons the user owns before inserting the new one.
func IssueCoupon(ctx context.Context, coupons *mongo.Collection, userID primitive.ObjectID) (*models.Coupon, error) {
	if _, err := coupons.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, err
	}

	coupon := models.Coupon{
		Code:               generateCouponCode(),
		DiscountPercentage: rewardDiscountPercentage,
		ExpirationDate:     time.Now().Add(couponValidity),
		UserID:             userID,
		IsActive:           true,
	}
	result, err := coupons.InsertOne(ctx, coupon)
	if err != nil {
		return nil, err
	}
	coupon.ID = result.InsertedID.(primitive.ObjectID)
	return &coupon, nil
}

func claimsUserID(r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}

// GetCoupon returns the user's active, unexpired coupon
func (cc *CouponController) GetCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := claimsUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var coupon models.Coupon
	err := cc.Coupons.FindOne(ctx, bson.M{
		"user_id":         userID,
		"is_active":       true,
		"expiration_date": bson.M{"$gt": time.Now()},
	}).Decode(&coupon)
	if err != nil {
		respondError(w, http.StatusNotFound, "No active coupons found")
		return
	}

	respondJSON(w, http.StatusOK, coupon)
}

// ValidateCoupon checks a code for the calling user. Expiration is
// enforced lazily here: an expired coupon is flagged inactive as a side
// effect of the failed validation.
func (cc *CouponController) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := claimsUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Code == "" {
		respondError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var coupon models.Coupon
	err := cc.Coupons.FindOne(ctx, bson.M{
		"code":      input.Code,
		"user_id":   userID,
		"is_active": true,
	}).Decode(&coupon)
	if err != nil {
		respondError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	if coupon.Expired(time.Now()) {
		_, err := cc.Coupons.UpdateOne(ctx, bson.M{"_id": coupon.ID}, bson.M{
			"$set": bson.M{"is_active": false},
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Error updating coupon")
			return
		}
		respondError(w, http.StatusBadRequest, "Coupon expired")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Coupon is valid",
		"code":                coupon.Code,
		"discount_percentage": coupon.DiscountPercentage,
	})
}
