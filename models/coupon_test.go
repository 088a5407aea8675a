package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCouponExpired(t *testing.T) {
	now := time.Now()
	coupon := Coupon{ExpirationDate: now}

	assert.False(t, coupon.Expired(now.Add(-time.Second)))
	assert.False(t, coupon.Expired(now))
	assert.True(t, coupon.Expired(now.Add(time.Second)))
}
