// Package payment checks the gateway's callback signature before a booking is
// written. Order creation against the gateway is handled elsewhere.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	apperrors "eventbook/pkg/app_errors"
)

var ErrMissingSecret = errors.New("payment webhook secret is not configured")

// Confirmation is what the gateway hands back to the client after checkout.
type Confirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

type Verifier interface {
	// Verify returns the verified payment reference.
	Verify(c Confirmation) (string, error)
}

type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

// Sign computes hex(HMAC-SHA256(orderID|paymentID)).
func (v *HMACVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *HMACVerifier) Verify(c Confirmation) (string, error) {
	if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return "", apperrors.ErrPaymentNotVerified
	}
	expected := v.Sign(c.OrderID, c.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(c.Signature))) {
		return "", apperrors.ErrPaymentNotVerified
	}
	return c.PaymentID, nil
}
