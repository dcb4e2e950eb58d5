package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/mq"
	"github.com/vinayak200306/Veluno/pkg/e"
)

// memStore 内存实现，保留生产实现的原子性语义：
// 预扣在锁内先全量校验再扣减，整单要么全部生效要么全部失败
type memStore struct {
	mu       sync.Mutex
	products map[int64]*model.Product
	orders   map[int64]*model.Order
	nextID   int64
}

func newMemStore(products ...*model.Product) *memStore {
	s := &memStore{
		products: map[int64]*model.Product{},
		orders:   map[int64]*model.Order{},
	}
	for _, p := range products {
		cp := *p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *memStore) stockOf(id int64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) CreateWithReservation(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range order.Items {
		p, ok := s.products[it.ProductID]
		if !ok {
			return e.New(e.ERROR_PRODUCT_NOT_EXISTS)
		}
		if !p.IsActive {
			return e.New(e.ERROR_PRODUCT_INACTIVE)
		}
		if p.Stock < it.Quantity {
			return e.New(e.ERROR_STOCK_NOT_ENOUGH)
		}
	}
	for _, it := range order.Items {
		s.products[it.ProductID].Stock -= it.Quantity
	}

	s.nextID++
	order.ID = s.nextID
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) CancelWithRestock(ctx context.Context, orderID int64, reason, actor string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
	}
	if model.IsTerminalStatus(o.OrderStatus) {
		return nil, e.New(e.ERROR_ORDER_STATUS_CHANGED)
	}

	o.OrderStatus = model.OrderStatusCancelled
	o.CancelReason = reason
	now := time.Now()
	o.CancelledAt = &now
	o.StatusHistory = append(o.StatusHistory, model.OrderStatusLog{
		Status: model.OrderStatusCancelled, Actor: actor, Note: reason,
	})
	for _, it := range o.Items {
		if p, ok := s.products[it.ProductID]; ok {
			p.Stock += it.Quantity
		}
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, orderID int64, from, to, trackingNumber, actor, note string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
	}
	if o.OrderStatus != from {
		return nil, e.New(e.ERROR_ORDER_STATUS_CHANGED)
	}
	o.OrderStatus = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if to == model.OrderStatusDelivered {
		now := time.Now()
		o.DeliveredAt = &now
	}
	o.StatusHistory = append(o.StatusHistory, model.OrderStatusLog{Status: to, Actor: actor, Note: note})
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdatePayment(ctx context.Context, orderID int64, paymentStatus, paymentID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
	}
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetOrderByID(ctx context.Context, orderID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if strings.EqualFold(o.OrderNumber, orderNumber) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
}

func (s *memStore) List(ctx context.Context, f dao.OrderFilter) ([]*model.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Order
	for _, o := range s.orders {
		if f.OrderStatus != "" && o.OrderStatus != f.OrderStatus {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) Stats(ctx context.Context) (*dao.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &dao.OrderStats{ByStatus: map[string]int64{}, ByPaymentStatus: map[string]int64{}}
	for _, o := range s.orders {
		stats.TotalOrders++
		stats.ByStatus[o.OrderStatus]++
		stats.ByPaymentStatus[o.PaymentStatus]++
		if o.PaymentStatus == model.PaymentStatusPaid {
			stats.TotalRevenue += o.TotalAmount
		}
	}
	return stats, nil
}

// orderStoreAdapter 让 memStore 同时充当 ProductReader 与 OrderStore：
// 两个接口都有 GetByID，这里拆分方法名
type orderStoreAdapter struct{ *memStore }

func (a orderStoreAdapter) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	return a.memStore.GetOrderByID(ctx, orderID)
}

type memPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Key   string
	MsgID string
	Body  []byte
}

func (p *memPublisher) PublishAsyncWithID(exchange, key string, body []byte, msgID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Key: key, MsgID: msgID, Body: body})
	return nil
}

func (p *memPublisher) byKey(key string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

func testProduct(id int64, price float64, stock int32) *model.Product {
	return &model.Product{
		ID:       id,
		SKU:      "TEE-TEST",
		Name:     "Classic Cotton Tee",
		Price:    price,
		Category: model.CategoryMen,
		Sizes:    "S,M,L",
		Images:   "front.jpg,back.jpg",
		Stock:    stock,
		IsActive: true,
	}
}

func testRequest(lines ...CartLine) *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerName: "Priya Sharma",
		Email:        "priya@example.com",
		Phone:        "9876543210",
		Address: model.Address{
			Street:     "12 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
		},
		Lines: lines,
	}
}

func newTestOrderService(store *memStore, pub *memPublisher) *OrderService {
	return NewOrderService(orderStoreAdapter{store}, store, pub)
}

func TestCreateOrder_TotalsAndSnapshot(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	pub := &memPublisher{}
	svc := newTestOrderService(store, pub)

	req := testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 2})
	req.ShippingCost = 50

	order, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1050.0, order.TotalAmount)
	assert.Equal(t, int32(3), store.stockOf(1))
	assert.Equal(t, model.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, model.PaymentMethodCOD, order.PaymentMethod)
	assert.True(t, model.IsOrderNumber(order.OrderNumber))

	// the line is a snapshot of the product at order time
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Classic Cotton Tee", order.Items[0].ProductName)
	assert.Equal(t, "front.jpg", order.Items[0].ProductImage)
	assert.Equal(t, 500.0, order.Items[0].Price)
	assert.Equal(t, 1000.0, order.Items[0].Subtotal)

	// history opens with the placement entry
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.OrderStatusPending, order.StatusHistory[0].Status)

	created := pub.byKey(mq.KeyOrderCreated)
	require.Len(t, created, 1)
	assert.NotEmpty(t, created[0].MsgID)
}

func TestCreateOrder_DiscountedPriceIsServerSide(t *testing.T) {
	p := testProduct(1, 1000, 10)
	p.Discount = 20
	store := newMemStore(p)
	svc := newTestOrderService(store, &memPublisher{})

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, 800.0, order.Items[0].Price)
	assert.Equal(t, 800.0, order.TotalAmount)
}

func TestCreateOrder_AllOrNothing(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5), testProduct(2, 300, 5))
	svc := newTestOrderService(store, &memPublisher{})

	req := testRequest(
		CartLine{ProductID: 1, Size: "M", Quantity: 1},
		CartLine{ProductID: 2, Size: "5XL", Quantity: 1}, // not offered for this product
	)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, e.IsCode(err, e.ERROR_INVALID_SIZE))

	// first line must not have reserved anything
	assert.Equal(t, int32(5), store.stockOf(1))
	assert.Equal(t, int32(5), store.stockOf(2))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 2))
	svc := newTestOrderService(store, &memPublisher{})

	_, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 3}))
	require.Error(t, err)
	assert.True(t, e.IsCode(err, e.ERROR_STOCK_NOT_ENOUGH))
	assert.Contains(t, err.Error(), "Available: 2")
	assert.Equal(t, int32(2), store.stockOf(1))
}

func TestCreateOrder_InactiveAndMissingProduct(t *testing.T) {
	inactive := testProduct(1, 500, 5)
	inactive.IsActive = false
	store := newMemStore(inactive)
	svc := newTestOrderService(store, &memPublisher{})

	_, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	assert.True(t, e.IsCode(err, e.ERROR_PRODUCT_INACTIVE))

	_, err = svc.Create(context.Background(), testRequest(CartLine{ProductID: 99, Size: "M", Quantity: 1}))
	assert.True(t, e.IsCode(err, e.ERROR_PRODUCT_NOT_EXISTS))
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	svc := newTestOrderService(store, &memPublisher{})

	_, err := svc.Create(context.Background(), testRequest())
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))

	req := testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 0})
	_, err = svc.Create(context.Background(), req)
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))

	req = testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1})
	req.Email = "not-an-email"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))

	req = testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1})
	req.PaymentMethod = "cheque"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))
}

func TestCreateOrder_ConcurrentLastUnit(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 1))
	svc := newTestOrderService(store, &memPublisher{})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range results {
		if err == nil {
			ok++
		} else if e.IsCode(err, e.ERROR_STOCK_NOT_ENOUGH) {
			rejected++
		}
	}
	assert.Equal(t, 1, ok, "exactly one checkout wins the last unit")
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int32(0), store.stockOf(1), "stock never goes negative")
}

func TestCancel_RestocksExactly(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	pub := &memPublisher{}
	svc := newTestOrderService(store, pub)

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 2}))
	require.NoError(t, err)
	require.Equal(t, int32(3), store.stockOf(1))

	cancelled, err := svc.Cancel(context.Background(), order.ID, "changed my mind", "priya@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.OrderStatus)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, int32(5), store.stockOf(1), "cancellation returns exactly the reserved quantity")

	events := pub.byKey(mq.KeyOrderCancelled)
	require.Len(t, events, 1)
	assert.Equal(t, "order-1-cancel", events[0].MsgID)

	// double cancel is rejected and never restocks twice
	_, err = svc.Cancel(context.Background(), order.ID, "", "admin")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_STATUS_CHANGED))
	assert.Equal(t, int32(5), store.stockOf(1))
}

func TestCancel_TerminalOrderRejected(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	svc := newTestOrderService(store, &memPublisher{})

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusDelivered, "", "admin", "")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), order.ID, "", "admin")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_STATUS_CHANGED))
	assert.Equal(t, int32(4), store.stockOf(1), "delivered orders never restock")
}

func TestUpdateStatus_StateMachine(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	pub := &memPublisher{}
	svc := newTestOrderService(store, pub)

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "", "ops@veluno.in", "payment checked")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.OrderStatus)
	assert.Len(t, updated.StatusHistory, 2)

	// forward skip straight to shipped, tracking number recorded
	updated, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusShipped, "AWB123456", "ops@veluno.in", "")
	require.NoError(t, err)
	assert.Equal(t, "AWB123456", updated.TrackingNumber)

	// backwards is rejected
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusProcessing, "", "ops@veluno.in", "")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_STATUS_CHANGED))

	updated, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusDelivered, "", "ops@veluno.in", "")
	require.NoError(t, err)
	assert.NotNil(t, updated.DeliveredAt)

	// terminal state is closed
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusShipped, "", "ops@veluno.in", "")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_STATUS_CHANGED))

	// cancellation must go through the dedicated operation
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusCancelled, "", "ops@veluno.in", "")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_STATUS_CHANGED))

	// unknown status
	_, err = svc.UpdateStatus(context.Background(), order.ID, "archived", "", "ops@veluno.in", "")
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))

	assert.Len(t, pub.byKey(mq.KeyOrderStatus), 3)
}

func TestTrack(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	svc := newTestOrderService(store, &memPublisher{})

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, err)

	found, err := svc.Track(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// lookup is case insensitive
	found, err = svc.Track(context.Background(), strings.ToLower(order.OrderNumber))
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.Track(context.Background(), "not-an-order-number")
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))

	_, err = svc.Track(context.Background(), "ORD-20250101-ZZZZZZ")
	assert.True(t, e.IsCode(err, e.ERROR_ORDER_NOT_EXISTS))
}

func TestUpdatePayment_Validation(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	svc := newTestOrderService(store, &memPublisher{})

	order, err := svc.Create(context.Background(), testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, err)

	updated, err := svc.UpdatePayment(context.Background(), order.ID, model.PaymentStatusPaid, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "pay_123", updated.PaymentID)

	_, err = svc.UpdatePayment(context.Background(), order.ID, "settled", "")
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))
}

func TestOnlinePaymentMarksOrderPaid(t *testing.T) {
	store := newMemStore(testProduct(1, 500, 5))
	svc := newTestOrderService(store, &memPublisher{})

	req := testRequest(CartLine{ProductID: 1, Size: "M", Quantity: 1})
	req.PaymentMethod = model.PaymentMethodUPI
	req.PaymentID = "pay_verified"
	req.GatewayOrderID = "order_gw1"

	order, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "order_gw1", order.GatewayOrderID)
}
