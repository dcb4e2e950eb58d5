// Package service 订单、支付与目录同步业务逻辑
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/mq"
	"github.com/vinayak200306/Veluno/pkg/e"
	"github.com/vinayak200306/Veluno/pkg/logger"
	"github.com/google/uuid"
)

// OrderStore 订单持久化接口，*dao.OrderDao 为生产实现。
// 库存预扣/回补的原子性由实现方保证：要么全部提交要么全部回滚。
type OrderStore interface {
	CreateWithReservation(ctx context.Context, order *model.Order) error
	CancelWithRestock(ctx context.Context, orderID int64, reason, actor string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, from, to, trackingNumber, actor, note string) (*model.Order, error)
	UpdatePayment(ctx context.Context, orderID int64, paymentStatus, paymentID string) (*model.Order, error)
	GetByID(ctx context.Context, orderID int64) (*model.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	List(ctx context.Context, f dao.OrderFilter) ([]*model.Order, int64, error)
	Stats(ctx context.Context) (*dao.OrderStats, error)
}

// ProductReader 下单校验所需的商品读取接口
type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// EventPublisher 订单事件发布接口，*mq.Pool 为生产实现
type EventPublisher interface {
	PublishAsyncWithID(exchange, key string, body []byte, msgID string) error
}

// CartLine 客户提交的购物车行
type CartLine struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Color     string `json:"color"`
	Quantity  int32  `json:"quantity" binding:"required"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	CustomerName   string        `json:"customer_name" binding:"required"`
	Email          string        `json:"email" binding:"required"`
	Phone          string        `json:"phone" binding:"required"`
	Address        model.Address `json:"address" binding:"required"`
	Lines          []CartLine    `json:"products" binding:"required"`
	PaymentMethod  string        `json:"payment_method"`
	PaymentID      string        `json:"payment_id"`
	GatewayOrderID string        `json:"gateway_order_id"`
	ShippingCost   float64       `json:"shipping_cost"`
	Discount       float64       `json:"discount"`
	Notes          string        `json:"notes"`
}

// OrderEventItem 订单事件里的订单行
type OrderEventItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
}

// OrderEvent 发布到MQ的订单生命周期事件
type OrderEvent struct {
	EventID     string           `json:"event_id"`
	OccurredAt  int64            `json:"occurred_at"`
	OrderID     int64            `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	Status      string           `json:"status"`
	Items       []OrderEventItem `json:"items,omitempty"`
}

type OrderService struct {
	orders   OrderStore
	products ProductReader
	events   EventPublisher // optional, nil disables publishing
}

func NewOrderService(orders OrderStore, products ProductReader, events EventPublisher) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		events:   events,
	}
}

// Create 校验购物车、按当前折后价快照订单行并原子预扣库存。
// 任一行校验失败整单失败，不发生任何库存扣减。
// 单价以服务端商品数据为准，客户端无法篡改价格。
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*model.Order, error) {
	if len(req.Lines) == 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "order must contain at least one product")
	}
	if req.ShippingCost < 0 || req.Discount < 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "shipping cost and discount cannot be negative")
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentMethodCOD
	}
	if !model.IsValidPaymentMethod(method) {
		return nil, e.Newf(e.INVALID_PARAMS, "%q is not a valid payment method", method)
	}

	order := &model.Order{
		OrderNumber:    model.NewOrderNumber(time.Now()),
		CustomerName:   req.CustomerName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		ShippingCost:   req.ShippingCost,
		Discount:       req.Discount,
		PaymentMethod:  method,
		PaymentID:      req.PaymentID,
		GatewayOrderID: req.GatewayOrderID,
		OrderStatus:    model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
		Notes:          req.Notes,
	}
	if order.Address.Country == "" {
		order.Address.Country = "India"
	}
	if err := order.ValidateContact(); err != nil {
		return nil, e.Newf(e.INVALID_PARAMS, "%s", err.Error())
	}
	// 网关支付在验签之后才带着payment_id进入创建流程
	if method != model.PaymentMethodCOD && req.PaymentID != "" {
		order.PaymentStatus = model.PaymentStatusPaid
	}

	var total float64
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, e.Newf(e.INVALID_PARAMS, "quantity must be at least 1")
		}
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, e.Newf(e.ERROR_PRODUCT_INACTIVE, "product is not available: %s", product.Name)
		}
		if !product.HasSize(line.Size) {
			return nil, e.Newf(e.ERROR_INVALID_SIZE, "invalid size %s for product %s", line.Size, product.Name)
		}
		// 预检查给出友好错误；真正的防超卖在存储层的条件扣减
		if product.Stock < line.Quantity {
			return nil, e.Newf(e.ERROR_STOCK_NOT_ENOUGH,
				"insufficient stock for %s. Available: %d, Requested: %d",
				product.Name, product.Stock, line.Quantity)
		}

		price := product.EffectivePrice()
		subtotal := price * float64(line.Quantity)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.PrimaryImage(),
			Size:         line.Size,
			Color:        line.Color,
			Quantity:     line.Quantity,
			Price:        price,
			Subtotal:     subtotal,
		})
		total += subtotal
	}
	order.TotalAmount = total + order.ShippingCost - order.Discount

	order.StatusHistory = []model.OrderStatusLog{{
		Status: model.OrderStatusPending,
		Actor:  "customer",
		Note:   "Order placed",
	}}

	if err := s.orders.CreateWithReservation(ctx, order); err != nil {
		if e.CodeOf(err) != e.ERROR {
			return nil, err
		}
		logger.ErrorContext(ctx, "order creation failed", "order_number", order.OrderNumber, "err", err)
		return nil, e.New(e.ERROR_STORE_UNAVAILABLE)
	}

	s.publish(mq.KeyOrderCreated, &OrderEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().Unix(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.OrderStatus,
		Items:       eventItems(order),
	})
	return order, nil
}

// Cancel 取消订单并回补库存。
// 状态守卫在存储层原子执行，重复取消不会二次回补。
func (s *OrderService) Cancel(ctx context.Context, orderID int64, reason, actor string) (*model.Order, error) {
	if reason == "" {
		reason = "Cancelled by admin"
	}
	order, err := s.orders.CancelWithRestock(ctx, orderID, reason, actor)
	if err != nil {
		if e.CodeOf(err) != e.ERROR {
			return nil, err
		}
		logger.ErrorContext(ctx, "order cancellation failed", "order_id", orderID, "err", err)
		return nil, e.New(e.ERROR_STORE_UNAVAILABLE)
	}

	// 确定性事件ID，重试发布不会产生新事件
	s.publish(mq.KeyOrderCancelled, &OrderEvent{
		EventID:     fmt.Sprintf("order-%d-cancel", orderID),
		OccurredAt:  time.Now().Unix(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      model.OrderStatusCancelled,
		Items:       eventItems(order),
	})
	return order, nil
}

// UpdateStatus 管理员推进订单状态，显式状态机校验后在存储层带乐观守卫落库
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, to, trackingNumber, actor, note string) (*model.Order, error) {
	if !model.IsValidOrderStatus(to) {
		return nil, e.Newf(e.INVALID_PARAMS, "%q is not a valid order status", to)
	}
	if to == model.OrderStatusCancelled {
		return nil, e.Newf(e.ERROR_ORDER_STATUS_CHANGED, "use the cancel operation to cancel an order")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(order.OrderStatus, to) {
		return nil, e.Newf(e.ERROR_ORDER_STATUS_CHANGED,
			"cannot transition order from %s to %s", order.OrderStatus, to)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, order.OrderStatus, to, trackingNumber, actor, note)
	if err != nil {
		return nil, err
	}

	s.publish(mq.KeyOrderStatus, &OrderEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().Unix(),
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		Status:      updated.OrderStatus,
	})
	return updated, nil
}

// UpdatePayment 管理员修改支付状态/支付单号
func (s *OrderService) UpdatePayment(ctx context.Context, orderID int64, paymentStatus, paymentID string) (*model.Order, error) {
	if paymentStatus != "" && !model.IsValidPaymentStatus(paymentStatus) {
		return nil, e.Newf(e.INVALID_PARAMS, "%q is not a valid payment status", paymentStatus)
	}
	return s.orders.UpdatePayment(ctx, orderID, paymentStatus, paymentID)
}

// Get 按ID查询订单
func (s *OrderService) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// Track 按订单号查询，客户查单入口
func (s *OrderService) Track(ctx context.Context, orderNumber string) (*model.Order, error) {
	if !model.IsOrderNumber(orderNumber) {
		return nil, e.Newf(e.INVALID_PARAMS, "invalid order number format")
	}
	return s.orders.GetByNumber(ctx, orderNumber)
}

// List 管理后台订单列表
func (s *OrderService) List(ctx context.Context, f dao.OrderFilter) ([]*model.Order, int64, error) {
	return s.orders.List(ctx, f)
}

// Stats 仪表盘统计
func (s *OrderService) Stats(ctx context.Context) (*dao.OrderStats, error) {
	return s.orders.Stats(ctx)
}

// publish 事件发布失败只记录日志，不影响订单主流程
func (s *OrderService) publish(key string, evt *OrderEvent) {
	if s.events == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		logger.Warn("order event marshal failed", "key", key, "err", err)
		return
	}
	if err := s.events.PublishAsyncWithID(mq.Exchange, key, b, evt.EventID); err != nil {
		logger.Warn("order event publish failed", "key", key, "order_id", evt.OrderID, "err", err)
		return
	}
	logger.Info("order event published", "key", key, "order_id", evt.OrderID, "event_id", evt.EventID)
}

func eventItems(order *model.Order) []OrderEventItem {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderEventItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return items
}
