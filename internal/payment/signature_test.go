package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyCheckout(t *testing.T) {
	const secret = "test_secret"
	sig := CheckoutSignature(secret, "order_abc123", "pay_def456")

	assert.True(t, VerifyCheckout(secret, "order_abc123", "pay_def456", sig))

	// wrong secret
	assert.False(t, VerifyCheckout("other_secret", "order_abc123", "pay_def456", sig))

	// any single-character mutation of the signature must fail
	mutated := []byte(sig)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	assert.False(t, VerifyCheckout(secret, "order_abc123", "pay_def456", string(mutated)))

	// different payload
	assert.False(t, VerifyCheckout(secret, "order_abc123", "pay_other", sig))
	assert.False(t, VerifyCheckout(secret, "order_other", "pay_def456", sig))

	// empty signature
	assert.False(t, VerifyCheckout(secret, "order_abc123", "pay_def456", ""))
}

func TestCheckoutSignature_PipeSeparator(t *testing.T) {
	const secret = "s"
	// the separator matters: moving a character across it must change the mac
	a := CheckoutSignature(secret, "ab", "c")
	b := CheckoutSignature(secret, "a", "bc")
	assert.NotEqual(t, a, b)
}

func TestVerifyWebhook(t *testing.T) {
	const secret = "webhook_secret"
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := WebhookSignature(secret, body)

	assert.True(t, VerifyWebhook(secret, body, sig))

	// body is signed raw: any byte change invalidates the signature
	tampered := append([]byte(nil), body...)
	tampered[10] ^= 0x01
	assert.False(t, VerifyWebhook(secret, tampered, sig))

	assert.False(t, VerifyWebhook("wrong", body, sig))
	assert.False(t, VerifyWebhook(secret, body, ""))
}
