package utils

import (
	"context"
	"go-storefront/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/coupon"
)

// StripeService wraps the Stripe checkout API
type StripeService struct {
	successURL string
	cancelURL  string
}

// NewStripeService sets the Stripe API key and returns a service bound to
// the client application's redirect URLs
func NewStripeService(secretKey, clientURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		successURL: clientURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  clientURL + "/cancel",
	}
}

// CreateCheckoutSession creates a hosted checkout session and returns its id
func (s *StripeService) CreateCheckoutSession(ctx context.Context, input models.CheckoutSessionInput) (*models.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Lines))
	for _, line := range input.Lines {
		item := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("inr"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(line.UnitAmountMinor),
			},
			Quantity: stripe.Int64(line.Quantity),
		}
		if line.ImageURL != "" {
			item.PriceData.ProductData.Images = stripe.StringSlice([]string{line.ImageURL})
		}
		lineItems = append(lineItems, item)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}
	params.Context = ctx
	if input.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(input.CouponID)},
		}
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutSession{
		ID:       sess.ID,
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: sess.Metadata,
	}, nil
}

// CreatePercentCoupon creates a single-use percent-off coupon on the
// provider side and returns its id
func (s *StripeService) CreatePercentCoupon(ctx context.Context, percentOff float64) (string, error) {
	params := &stripe.CouponParams{
		PercentOff: stripe.Float64(percentOff),
		Duration:   stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx
	c, err := coupon.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// GetCheckoutSession retrieves a checkout session by id
func (s *StripeService) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(id, params)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutSession{
		ID:       sess.ID,
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: sess.Metadata,
	}, nil
}
