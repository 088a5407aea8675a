package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUnitAmountMinor(t *testing.T) {
	assert.Equal(t, int64(10000), unitAmountMinor(100.00))
	assert.Equal(t, int64(5000), unitAmountMinor(50.00))
	assert.Equal(t, int64(1999), unitAmountMinor(19.99))
	assert.Equal(t, int64(10), unitAmountMinor(0.095))
	assert.Equal(t, int64(0), unitAmountMinor(0))
}

func TestDiscountMinor(t *testing.T) {
	assert.Equal(t, int64(2500), discountMinor(25000, 10))
	assert.Equal(t, int64(0), discountMinor(25000, 0))
	assert.Equal(t, int64(25000), discountMinor(25000, 100))
	// rounded, not truncated
	assert.Equal(t, int64(13), discountMinor(125, 10))
}

func TestComputeCheckoutLines_PerUnitRounding(t *testing.T) {
	// cart [{price:100.00, qty:2}, {price:50.00, qty:1}] -> subtotal 250.00
	lines, totalMinor := computeCheckoutLines([]checkoutProduct{
		{ID: primitive.NewObjectID().Hex(), Name: "keyboard", Price: 100.00, Quantity: 2},
		{ID: primitive.NewObjectID().Hex(), Name: "mouse", Price: 50.00, Quantity: 1},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, int64(25000), totalMinor)
	assert.Equal(t, int64(10000), lines[0].UnitAmountMinor)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, int64(5000), lines[1].UnitAmountMinor)

	// with a 10% coupon: discount 25.00, total 225.00
	discounted := totalMinor - discountMinor(totalMinor, 10)
	assert.Equal(t, int64(22500), discounted)
}

func TestComputeCheckoutLines_DefaultsQuantityToOne(t *testing.T) {
	lines, totalMinor := computeCheckoutLines([]checkoutProduct{
		{Name: "sticker", Price: 1.50},
	})

	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].Quantity)
	assert.Equal(t, int64(150), totalMinor)
}

func TestSessionMetadataRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()

	metadata, err := buildSessionMetadata(userID.Hex(), "GIFTABC123", 22500, []checkoutProduct{
		{ID: productID.Hex(), Price: 100.00, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, userID.Hex(), metadata["user_id"])
	assert.Equal(t, "GIFTABC123", metadata["coupon_code"])
	assert.Equal(t, "22500", metadata["total_minor"])

	items, err := decodeMetadataProducts(metadata["products"])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 100.00, items[0].Price)
}

func TestDecodeMetadataProducts_Defensive(t *testing.T) {
	validID := primitive.NewObjectID().Hex()

	cases := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"not json", "not-json"},
		{"empty array", "[]"},
		{"bad product id", `[{"id":"nope","price":1,"quantity":1}]`},
		{"negative price", `[{"id":"` + validID + `","price":-1,"quantity":1}]`},
		{"zero quantity", `[{"id":"` + validID + `","price":1,"quantity":0}]`},
		{"negative quantity", `[{"id":"` + validID + `","price":1,"quantity":-2}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeMetadataProducts(tc.raw)
			assert.Error(t, err)
		})
	}
}

type fakeGateway struct {
	lastInput models.CheckoutSessionInput
	session   *models.CheckoutSession
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, input models.CheckoutSessionInput) (*models.CheckoutSession, error) {
	f.lastInput = input
	return &models.CheckoutSession{ID: "cs_test_123"}, nil
}

func (f *fakeGateway) CreatePercentCoupon(ctx context.Context, percentOff float64) (string, error) {
	return "coupon_test", nil
}

func (f *fakeGateway) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	return f.session, nil
}

func authedRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	claims := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: "customer"}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func TestCreateCheckoutSession_NoCoupon(t *testing.T) {
	gateway := &fakeGateway{}
	pc := &PaymentController{Gateway: gateway}

	req := authedRequest(t, http.MethodPost, "/payment/checkout-session", map[string]interface{}{
		"products": []map[string]interface{}{
			{"_id": primitive.NewObjectID().Hex(), "name": "keyboard", "price": 100.00, "quantity": 2},
			{"_id": primitive.NewObjectID().Hex(), "name": "mouse", "price": 50.00, "quantity": 1},
		},
	})
	rec := httptest.NewRecorder()

	pc.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID   string  `json:"session_id"`
		TotalAmount float64 `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_test_123", resp.SessionID)
	assert.Equal(t, 250.00, resp.TotalAmount)

	assert.Equal(t, "25000", gateway.lastInput.Metadata["total_minor"])
	assert.Equal(t, "", gateway.lastInput.Metadata["coupon_code"])
	assert.Empty(t, gateway.lastInput.CouponID)
	require.Len(t, gateway.lastInput.Lines, 2)
}

func TestCreateCheckoutSession_EmptyProducts(t *testing.T) {
	pc := &PaymentController{Gateway: &fakeGateway{}}

	req := authedRequest(t, http.MethodPost, "/payment/checkout-session", map[string]interface{}{
		"products": []map[string]interface{}{},
	})
	rec := httptest.NewRecorder()

	pc.CreateCheckoutSession(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutSession_Unauthorized(t *testing.T) {
	pc := &PaymentController{Gateway: &fakeGateway{}}

	req := httptest.NewRequest(http.MethodPost, "/payment/checkout-session", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()

	pc.CreateCheckoutSession(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutSuccess_PaymentIncomplete(t *testing.T) {
	gateway := &fakeGateway{session: &models.CheckoutSession{ID: "cs_test_123", Paid: false}}
	pc := &PaymentController{Gateway: gateway}

	req := authedRequest(t, http.MethodPost, "/payment/checkout-success", map[string]string{
		"session_id": "cs_test_123",
	})
	rec := httptest.NewRecorder()

	pc.CheckoutSuccess(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCheckoutSuccess_MissingSessionID(t *testing.T) {
	pc := &PaymentController{Gateway: &fakeGateway{}}

	req := authedRequest(t, http.MethodPost, "/payment/checkout-success", map[string]string{})
	rec := httptest.NewRecorder()

	pc.CheckoutSuccess(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func paidSession(userID, productID primitive.ObjectID) *models.CheckoutSession {
	return &models.CheckoutSession{
		ID:   "cs_test_123",
		Paid: true,
		Metadata: map[string]string{
			"user_id":     userID.Hex(),
			"coupon_code": "",
			"total_minor": "22500",
			"products":    `[{"id":"` + productID.Hex() + `","price":100,"quantity":2}]`,
		},
	}
}

func orderDoc(id, userID primitive.ObjectID, sessionID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: userID},
		{Key: "total_amount", Value: 225.0},
		{Key: "stripe_session_id", Value: sessionID},
		{Key: "created_at", Value: primitive.NewDateTimeFromTime(time.Now())},
	}
}

func checkoutSuccessResponse(t *testing.T, rec *httptest.ResponseRecorder) (message, orderID string) {
	t.Helper()
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Message, resp.OrderID
}

func TestCheckoutSuccess_SameSessionReconciledOnce(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second callback returns the existing order", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		gateway := &fakeGateway{session: paidSession(userID, primitive.NewObjectID())}
		pc := &PaymentController{
			Gateway: gateway,
			Orders:  mt.DB.Collection("orders"),
			Coupons: mt.DB.Collection("coupons"),
			Users:   mt.DB.Collection("users"),
			Cfg:     &utils.Config{RewardThreshold: 1000000},
		}

		// first callback: no existing order, insert it, clear the cart
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		rec := httptest.NewRecorder()
		pc.CheckoutSuccess(rec, authedRequest(mt.T, http.MethodPost, "/payment/checkout-success", map[string]string{"session_id": "cs_test_123"}))

		require.Equal(t, http.StatusOK, rec.Code)
		message, firstOrderID := checkoutSuccessResponse(mt.T, rec)
		assert.Equal(t, "Order created successfully", message)
		require.NotEmpty(t, firstOrderID)
		existingID, err := primitive.ObjectIDFromHex(firstOrderID)
		require.NoError(t, err)

		// second callback for the same session short-circuits on the read
		// guard; no insert, no cart mutation
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "storefront.orders", mtest.FirstBatch, orderDoc(existingID, userID, "cs_test_123")),
		)

		rec = httptest.NewRecorder()
		pc.CheckoutSuccess(rec, authedRequest(mt.T, http.MethodPost, "/payment/checkout-success", map[string]string{"session_id": "cs_test_123"}))

		require.Equal(t, http.StatusOK, rec.Code)
		message, secondOrderID := checkoutSuccessResponse(mt.T, rec)
		assert.Equal(t, "Order already processed", message)
		assert.Equal(t, firstOrderID, secondOrderID)
	})

	mt.Run("concurrent callback losing the insert race resolves to the winner's order", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		winnerOrderID := primitive.NewObjectID()
		gateway := &fakeGateway{session: paidSession(userID, primitive.NewObjectID())}
		pc := &PaymentController{
			Gateway: gateway,
			Orders:  mt.DB.Collection("orders"),
			Coupons: mt.DB.Collection("coupons"),
			Users:   mt.DB.Collection("users"),
			Cfg:     &utils.Config{RewardThreshold: 1000000},
		}

		// the read guard sees nothing, then the unique index on
		// stripe_session_id rejects the insert
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(1, "storefront.orders", mtest.FirstBatch, orderDoc(winnerOrderID, userID, "cs_test_123")),
		)

		rec := httptest.NewRecorder()
		pc.CheckoutSuccess(rec, authedRequest(mt.T, http.MethodPost, "/payment/checkout-success", map[string]string{"session_id": "cs_test_123"}))

		require.Equal(t, http.StatusOK, rec.Code)
		message, orderID := checkoutSuccessResponse(mt.T, rec)
		assert.Equal(t, "Order already processed", message)
		assert.Equal(t, winnerOrderID.Hex(), orderID)
	})
}

func TestCreateCheckoutSession_ExpiredCouponYieldsNoDiscount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("expired coupon is flagged and skipped", func(mt *mtest.T) {
		gateway := &fakeGateway{}
		pc := &PaymentController{
			Gateway: gateway,
			Coupons: mt.DB.Collection("coupons"),
		}

		expired := couponDoc(primitive.NewObjectID(), primitive.NewObjectID(), "GIFTEXPIRED1", time.Now().Add(-time.Hour))
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "storefront.coupons", mtest.FirstBatch, expired),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		req := authedRequest(mt.T, http.MethodPost, "/payment/checkout-session", map[string]interface{}{
			"products": []map[string]interface{}{
				{"_id": primitive.NewObjectID().Hex(), "name": "keyboard", "price": 100.00, "quantity": 2},
				{"_id": primitive.NewObjectID().Hex(), "name": "mouse", "price": 50.00, "quantity": 1},
			},
			"couponCode": "GIFTEXPIRED1",
		})
		rec := httptest.NewRecorder()
		pc.CreateCheckoutSession(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			TotalAmount float64 `json:"total_amount"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 250.00, resp.TotalAmount)
		assert.Equal(t, "", gateway.lastInput.Metadata["coupon_code"])
		assert.Empty(t, gateway.lastInput.CouponID)
	})
}
