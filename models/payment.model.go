package models

// CheckoutLine is a single line item sent to the payment provider.
// UnitAmountMinor is the per-unit price in minor currency units.
type CheckoutLine struct {
	Name            string
	ImageURL        string
	UnitAmountMinor int64
	Quantity        int64
}

// CheckoutSessionInput is the request for an external checkout session.
// Metadata values must be flat scalar strings; the payment API does not
// round-trip nested structures.
type CheckoutSessionInput struct {
	Lines    []CheckoutLine
	CouponID string
	Metadata map[string]string
}

// CheckoutSession is the provider-side view of a checkout session
type CheckoutSession struct {
	ID       string
	Paid     bool
	Metadata map[string]string
}
