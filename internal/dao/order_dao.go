package dao

import (
	"context"
	"errors"
	"time"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
	"gorm.io/gorm"
)

type OrderDao struct {
	db *gorm.DB
}

func NewOrderDao(db *gorm.DB) *OrderDao {
	return &OrderDao{
		db: db,
	}
}

// OrderFilter 管理后台订单列表查询条件
type OrderFilter struct {
	OrderStatus   string
	PaymentStatus string
	Search        string // matches order number, customer name, email, phone
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int32
	PageSize      int32
}

// OrderStats 仪表盘统计
type OrderStats struct {
	TotalOrders       int64            `json:"total_orders"`
	TotalRevenue      float64          `json:"total_revenue"` // paid orders only
	AverageOrderValue float64          `json:"average_order_value"`
	ByStatus          map[string]int64 `json:"orders_by_status"`
	ByPaymentStatus   map[string]int64 `json:"orders_by_payment_status"`
	RecentOrders      []*model.Order   `json:"recent_orders"`
}

// CreateWithReservation 创建订单并预扣库存，单事务全有或全无。
// 条件UPDATE带 stock >= ? 保证扣减是原子检查加更新，
// 并发下单同一商品时数据库行锁串行化，库存永不为负。
func (d *OrderDao) CreateWithReservation(ctx context.Context, order *model.Order) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range order.Items {
			it := &order.Items[i]
			res := tx.Model(&model.Product{}).
				Where("id = ? AND is_active = ? AND stock >= ?", it.ProductID, true, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// 扣减失败，重读商品区分失败原因；返回错误回滚前面所有行的扣减
				return classifyReservationFailure(tx, it.ProductID, it.Quantity)
			}
		}
		// 订单行与初始状态日志随订单一并插入
		return tx.Create(order).Error
	})
}

func classifyReservationFailure(tx *gorm.DB, productID int64, qty int32) error {
	var p model.Product
	err := tx.Where("id = ?", productID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.Newf(e.ERROR_PRODUCT_NOT_EXISTS, "product not found: %d", productID)
	}
	if err != nil {
		return err
	}
	if !p.IsActive {
		return e.Newf(e.ERROR_PRODUCT_INACTIVE, "product is not available: %s", p.Name)
	}
	return e.Newf(e.ERROR_STOCK_NOT_ENOUGH,
		"insufficient stock for %s. Available: %d, Requested: %d", p.Name, p.Stock, qty)
}

// CancelWithRestock 取消订单并回补库存，单事务全有或全无。
// 状态守卫用条件UPDATE实现：终态订单影响行数为0，
// 重复取消在触碰库存之前就会失败，不会二次回补。
func (d *OrderDao) CancelWithRestock(ctx context.Context, orderID int64, reason, actor string) (*model.Order, error) {
	var out *model.Order
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord model.Order
		if err := tx.Preload("Items").Where("id = ?", orderID).First(&ord).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.New(e.ERROR_ORDER_NOT_EXISTS)
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&model.Order{}).
			Where("id = ? AND order_status NOT IN ?", orderID,
				[]string{model.OrderStatusDelivered, model.OrderStatusCancelled}).
			Updates(map[string]interface{}{
				"order_status":  model.OrderStatusCancelled,
				"cancel_reason": reason,
				"cancelled_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return e.Newf(e.ERROR_ORDER_STATUS_CHANGED, "cannot cancel a %s order", ord.OrderStatus)
		}

		// 商品可能已被删除，影响0行不算错误，历史订单行按值快照不受影响
		for _, it := range ord.Items {
			if err := tx.Model(&model.Product{}).Where("id = ?", it.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		logRow := model.OrderStatusLog{
			OrderID: orderID,
			Status:  model.OrderStatusCancelled,
			Actor:   actor,
			Note:    reason,
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return err
		}

		ord.OrderStatus = model.OrderStatusCancelled
		ord.CancelReason = reason
		ord.CancelledAt = &now
		ord.StatusHistory = append(ord.StatusHistory, logRow)
		out = &ord
		return nil
	})
	return out, err
}

// UpdateStatus 状态流转：from 作为乐观守卫，并发修改时影响行数为0
func (d *OrderDao) UpdateStatus(ctx context.Context, orderID int64, from, to, trackingNumber, actor, note string) (*model.Order, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"order_status": to,
		}
		if to == model.OrderStatusDelivered {
			// delivered_at 只设置一次；from守卫保证不会重复进入delivered
			updates["delivered_at"] = time.Now()
		}
		if trackingNumber != "" {
			updates["tracking_number"] = trackingNumber
		}

		res := tx.Model(&model.Order{}).
			Where("id = ? AND order_status = ?", orderID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return e.New(e.ERROR_ORDER_STATUS_CHANGED)
		}

		return tx.Create(&model.OrderStatusLog{
			OrderID: orderID,
			Status:  to,
			Actor:   actor,
			Note:    note,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return d.GetByID(ctx, orderID)
}

// UpdatePayment 管理后台修改支付状态/支付单号
func (d *OrderDao) UpdatePayment(ctx context.Context, orderID int64, paymentStatus, paymentID string) (*model.Order, error) {
	updates := map[string]interface{}{}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	if len(updates) > 0 {
		res := d.db.WithContext(ctx).Model(&model.Order{}).
			Where("id = ?", orderID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
		}
	}
	return d.GetByID(ctx, orderID)
}

// GetByID 根据ID获取订单（含订单行和状态历史）
func (d *OrderDao) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	var ord model.Order
	err := d.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("id = ?", orderID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
		}
		return nil, err
	}
	return &ord, nil
}

// GetByNumber 根据订单号获取订单，面向客户的查询入口
func (d *OrderDao) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var ord model.Order
	err := d.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("order_number = ?", orderNumber).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
		}
		return nil, err
	}
	return &ord, nil
}

// FindByGatewayOrderID 支付验签时回查订单
func (d *OrderDao) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	var ord model.Order
	err := d.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
		}
		return nil, err
	}
	return &ord, nil
}

// FindByPaymentID webhook回调时按网关支付单号回查
func (d *OrderDao) FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error) {
	var ord model.Order
	err := d.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
		}
		return nil, err
	}
	return &ord, nil
}

// List 管理后台分页查询
func (d *OrderDao) List(ctx context.Context, f OrderFilter) ([]*model.Order, int64, error) {
	q := d.db.WithContext(ctx).Model(&model.Order{})

	if f.OrderStatus != "" {
		q = q.Where("order_status = ?", f.OrderStatus)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("order_number LIKE ? OR customer_name LIKE ? OR email LIKE ? OR phone LIKE ?",
			like, like, like, like)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var orders []*model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Limit(int(pageSize)).
		Offset(int((page - 1) * pageSize)).
		Find(&orders).Error
	return orders, total, err
}

// Stats 仪表盘聚合统计
func (d *OrderDao) Stats(ctx context.Context) (*OrderStats, error) {
	stats := &OrderStats{
		ByStatus:        make(map[string]int64),
		ByPaymentStatus: make(map[string]int64),
	}

	db := d.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	// 营收只算已支付订单
	if err := db.Model(&model.Order{}).
		Where("payment_status = ?", model.PaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).
		Select("COALESCE(AVG(total_amount), 0)").
		Scan(&stats.AverageOrderValue).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var rows []bucket
	if err := db.Model(&model.Order{}).
		Select("order_status AS `key`, COUNT(*) AS count").
		Group("order_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Key] = r.Count
	}

	rows = rows[:0]
	if err := db.Model(&model.Order{}).
		Select("payment_status AS `key`, COUNT(*) AS count").
		Group("payment_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByPaymentStatus[r.Key] = r.Count
	}

	if err := db.Model(&model.Order{}).
		Order("created_at DESC").
		Limit(10).
		Find(&stats.RecentOrders).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
