package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/vinayak200306/Veluno/config"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/payment"
	"github.com/vinayak200306/Veluno/pkg/e"
	"github.com/vinayak200306/Veluno/pkg/logger"
)

// PaymentOrderStore 支付流程需要的订单存储接口
type PaymentOrderStore interface {
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error)
	UpdatePayment(ctx context.Context, orderID int64, paymentStatus, paymentID string) (*model.Order, error)
}

// Deduper webhook事件去重接口，*cache.EventDedup 为生产实现
type Deduper interface {
	Claim(ctx context.Context, eventID string) bool
}

// Gateway 支付网关接口，*payment.RazorpayClient 为生产实现
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*payment.GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*payment.GatewayPayment, error)
	Refund(ctx context.Context, paymentID string, amountPaise int64) (*payment.GatewayRefund, error)
}

type PaymentService struct {
	keySecret     string
	webhookSecret string
	gateway       Gateway
	orders        PaymentOrderStore
	dedup         Deduper // optional
}

func NewPaymentService(cfg *config.RazorpayConfig, gateway Gateway, orders PaymentOrderStore, dedup Deduper) *PaymentService {
	return &PaymentService{
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		gateway:       gateway,
		orders:        orders,
		dedup:         dedup,
	}
}

// toPaise 网关侧金额为最小货币单位
func toPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// CreateGatewayOrder 在网关登记一笔待支付订单，返回给前端唤起收银台
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, amountRupees float64, currency, receipt string) (*payment.GatewayOrder, string, error) {
	if amountRupees <= 0 {
		return nil, "", e.Newf(e.INVALID_PARAMS, "please provide a valid amount")
	}
	if receipt == "" {
		receipt = payment.NewReceipt()
	}
	order, err := s.gateway.CreateOrder(ctx, toPaise(amountRupees), currency, receipt)
	if err != nil {
		logger.ErrorContext(ctx, "gateway order creation failed", "err", err)
		return nil, "", e.New(e.ERROR_PAYMENT_GATEWAY)
	}
	return order, s.gateway.KeyID(), nil
}

// VerifyCheckout 收银台回调验签：对 "<网关订单号>|<支付单号>"
// 重算HMAC并恒定时间比较。验签失败订单不做任何变更，
// 期望签名永不返回给调用方。
func (s *PaymentService) VerifyCheckout(ctx context.Context, gatewayOrderID, paymentID, signature string) (*model.Order, error) {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "missing payment verification parameters")
	}
	if !payment.VerifyCheckout(s.keySecret, gatewayOrderID, paymentID, signature) {
		logger.WarnContext(ctx, "payment signature mismatch", "gateway_order_id", gatewayOrderID)
		return nil, e.New(e.ERROR_SIGNATURE_MISMATCH)
	}

	// 验签通过后把对应订单标记为已支付；
	// 前端先验签再下单的场景此时还查不到订单，属于正常情况
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if e.IsCode(err, e.ERROR_ORDER_NOT_EXISTS) {
			return nil, nil
		}
		return nil, err
	}
	return s.orders.UpdatePayment(ctx, order.ID, model.PaymentStatusPaid, paymentID)
}

// webhookEnvelope 网关异步通知的载荷结构。
// 支付事件实体在 payload.payment.entity，
// 退款事件实体在 payload.refund.entity，通过payment_id反查订单
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// HandleWebhook 处理网关异步通知。任何状态变更之前先对原始报文验签；
// 事件ID去重抑制网关重试造成的重复投递。
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature, eventID string) error {
	if !payment.VerifyWebhook(s.webhookSecret, body, signature) {
		logger.WarnContext(ctx, "webhook signature mismatch", "event_id", eventID)
		return e.New(e.ERROR_SIGNATURE_MISMATCH)
	}
	if s.dedup != nil && eventID != "" && !s.dedup.Claim(ctx, eventID) {
		logger.InfoContext(ctx, "webhook event already processed", "event_id", eventID)
		return nil
	}

	var evt webhookEnvelope
	if err := json.Unmarshal(body, &evt); err != nil {
		return e.Newf(e.INVALID_PARAMS, "malformed webhook payload")
	}

	entity := evt.Payload.Payment.Entity
	switch evt.Event {
	case "payment.authorized":
		logger.InfoContext(ctx, "payment authorized", "payment_id", entity.ID)
		return nil
	case "payment.captured":
		return s.applyPaymentOutcome(ctx, entity.OrderID, entity.ID, model.PaymentStatusPaid)
	case "payment.failed":
		return s.applyPaymentOutcome(ctx, entity.OrderID, entity.ID, model.PaymentStatusFailed)
	case "refund.processed":
		return s.applyRefundOutcome(ctx, evt.Payload.Refund.Entity.PaymentID)
	default:
		logger.InfoContext(ctx, "unhandled webhook event", "event", evt.Event)
		return nil
	}
}

func (s *PaymentService) applyPaymentOutcome(ctx context.Context, gatewayOrderID, paymentID, status string) error {
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if e.IsCode(err, e.ERROR_ORDER_NOT_EXISTS) {
			// 订单可能尚未落库，网关会重试投递
			logger.WarnContext(ctx, "webhook for unknown order", "gateway_order_id", gatewayOrderID)
			return nil
		}
		return err
	}
	_, err = s.orders.UpdatePayment(ctx, order.ID, status, paymentID)
	return err
}

// applyRefundOutcome 退款事件不带网关订单号，按payment_id反查订单
func (s *PaymentService) applyRefundOutcome(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		logger.WarnContext(ctx, "refund webhook without payment id")
		return nil
	}
	order, err := s.orders.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if e.IsCode(err, e.ERROR_ORDER_NOT_EXISTS) {
			logger.WarnContext(ctx, "refund webhook for unknown payment", "payment_id", paymentID)
			return nil
		}
		return err
	}
	_, err = s.orders.UpdatePayment(ctx, order.ID, model.PaymentStatusRefunded, paymentID)
	return err
}

// FetchPayment 管理后台查看支付详情，只透出安全字段
func (s *PaymentService) FetchPayment(ctx context.Context, paymentID string) (*payment.GatewayPayment, error) {
	p, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		logger.ErrorContext(ctx, "fetch payment failed", "payment_id", paymentID, "err", err)
		return nil, e.New(e.ERROR_PAYMENT_GATEWAY)
	}
	return p, nil
}

// Refund 管理后台发起退款，amountRupees为0时全额退款
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amountRupees float64) (*payment.GatewayRefund, error) {
	if paymentID == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "payment ID is required")
	}
	refund, err := s.gateway.Refund(ctx, paymentID, toPaise(amountRupees))
	if err != nil {
		logger.ErrorContext(ctx, "refund failed", "payment_id", paymentID, "err", err)
		return nil, e.New(e.ERROR_PAYMENT_GATEWAY)
	}

	if order, err := s.orders.FindByPaymentID(ctx, paymentID); err == nil {
		if _, uerr := s.orders.UpdatePayment(ctx, order.ID, model.PaymentStatusRefunded, ""); uerr != nil {
			logger.Warn("refund recorded at gateway but order update failed", "payment_id", paymentID, "err", uerr)
		}
	}
	return refund, nil
}
