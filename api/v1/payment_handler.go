package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateGatewayOrder 在网关登记待支付订单，返回前端唤起收银台所需的参数
func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	var req struct {
		Amount   float64 `json:"amount" binding:"required"`
		Currency string  `json:"currency"`
		Receipt  string  `json:"receipt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	order, keyID, err := h.payments.CreateGatewayOrder(c.Request.Context(), req.Amount, req.Currency, req.Receipt)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusCreated, gin.H{
		"gateway_order": order,
		"key_id":        keyID,
	})
}

// VerifyPayment 收银台回调验签。验签失败订单不做任何变更
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req struct {
		GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
		PaymentID      string `json:"razorpay_payment_id" binding:"required"`
		Signature      string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	order, err := h.payments.VerifyCheckout(c.Request.Context(), req.GatewayOrderID, req.PaymentID, req.Signature)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, gin.H{
		"verified": true,
		"order":    order,
	})
}

// Webhook 网关异步通知。必须对原始报文验签，
// 任何解析都在验签之后
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")
	eventID := c.GetHeader("X-Razorpay-Event-Id")

	if err := h.payments.HandleWebhook(c.Request.Context(), body, signature, eventID); err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, gin.H{"received": true})
}

// FetchPayment 管理后台查看支付详情
func (h *PaymentHandler) FetchPayment(c *gin.Context) {
	payment, err := h.payments.FetchPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, payment)
}

// Refund 管理后台发起退款
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req struct {
		PaymentID string  `json:"payment_id" binding:"required"`
		Amount    float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	refund, err := h.payments.Refund(c.Request.Context(), req.PaymentID, req.Amount)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, refund)
}

// RegisterRoutes 注册店面支付路由
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("/create-order", h.CreateGatewayOrder)
		payments.POST("/verify", h.VerifyPayment)
		payments.POST("/webhook", h.Webhook)
	}
}

// RegisterAdminRoutes 注册管理后台支付路由，需JWT认证
func (h *PaymentHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.GET("/:paymentID", h.FetchPayment)
		payments.POST("/refund", h.Refund)
	}
}
