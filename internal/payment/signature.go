package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Razorpay收银台回调对 "<gateway_order_id>|<payment_id>" 做HMAC-SHA256签名，
// Webhook对原始请求体做HMAC-SHA256签名，均为hex编码

// CheckoutSignature 计算收银台回调的期望签名
func CheckoutSignature(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckout 校验回调签名。
// 比较为常数时间，期望签名值绝不向外透出
func VerifyCheckout(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := CheckoutSignature(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookSignature 对原始请求体计算Webhook期望签名
func WebhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook 校验Webhook报文真实性
func VerifyWebhook(secret string, body []byte, signature string) bool {
	expected := WebhookSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
