package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// 订单状态枚举
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态枚举
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付方式枚举
const (
	PaymentMethodCOD        = "cod"
	PaymentMethodCard       = "card"
	PaymentMethodUPI        = "upi"
	PaymentMethodNetbanking = "netbanking"
	PaymentMethodWallet     = "wallet"
)

var validPaymentStatuses = map[string]bool{
	PaymentStatusPending:  true,
	PaymentStatusPaid:     true,
	PaymentStatusFailed:   true,
	PaymentStatusRefunded: true,
}

var validPaymentMethods = map[string]bool{
	PaymentMethodCOD:        true,
	PaymentMethodCard:       true,
	PaymentMethodUPI:        true,
	PaymentMethodNetbanking: true,
	PaymentMethodWallet:     true,
}

// Address 收货地址，内嵌到订单行
type Address struct {
	Street     string `gorm:"size:200;not null" json:"street"`
	City       string `gorm:"size:100;not null" json:"city"`
	State      string `gorm:"size:100;not null" json:"state"`
	PostalCode string `gorm:"size:20;not null" json:"postal_code"`
	Country    string `gorm:"size:100;not null;default:India" json:"country"`
}

// Order 订单模型，历史订单只追加不删除
type Order struct {
	ID             int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string           `gorm:"size:24;not null;uniqueIndex" json:"order_number"`
	CustomerName   string           `gorm:"size:100;not null" json:"customer_name"`
	Email          string           `gorm:"size:100;not null;index" json:"email"`
	Phone          string           `gorm:"size:20;not null;index" json:"phone"`
	Address        Address          `gorm:"embedded;embeddedPrefix:addr_" json:"address"`
	Items          []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
	ShippingCost   float64          `gorm:"type:decimal(10,2);default:0" json:"shipping_cost"`
	Discount       float64          `gorm:"type:decimal(10,2);default:0" json:"discount"`
	TotalAmount    float64          `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentStatus  string           `gorm:"size:16;not null;default:pending;index" json:"payment_status"`
	PaymentMethod  string           `gorm:"size:16;not null;default:cod" json:"payment_method"`
	PaymentID      string           `gorm:"size:64;index" json:"payment_id,omitempty"`
	GatewayOrderID string           `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	OrderStatus    string           `gorm:"size:16;not null;default:pending;index" json:"order_status"`
	TrackingNumber string           `gorm:"size:64" json:"tracking_number,omitempty"`
	Notes          string           `gorm:"size:500" json:"notes,omitempty"`
	CancelReason   string           `gorm:"size:500" json:"cancel_reason,omitempty"`
	StatusHistory  []OrderStatusLog `gorm:"foreignKey:OrderID" json:"status_history"`
	DeliveredAt    *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Order) TableName() string {
	return "orders"
}

// OrderItem 订单行，下单时按值快照商品信息
// 商品后续被编辑或下架不影响历史订单展示
type OrderItem struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64   `gorm:"not null;index" json:"order_id"`
	ProductID    int64   `gorm:"not null;index" json:"product_id"` // weak reference, lookup only
	ProductName  string  `gorm:"size:200;not null" json:"product_name"`
	ProductImage string  `gorm:"size:500" json:"product_image"`
	Size         string  `gorm:"size:8;not null" json:"size"`
	Color        string  `gorm:"size:40" json:"color,omitempty"`
	Quantity     int32   `gorm:"not null" json:"quantity"`
	Price        float64 `gorm:"type:decimal(10,2);not null" json:"price"` // effective unit price at order time
	Subtotal     float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (*OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusLog 订单状态流转审计日志，只追加
type OrderStatusLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	Actor     string    `gorm:"size:100" json:"actor,omitempty"`
	Note      string    `gorm:"size:500" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (*OrderStatusLog) TableName() string {
	return "order_status_logs"
}

// TotalItems 订单内商品总件数
func (o *Order) TotalItems() int32 {
	var total int32
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

// FullAddress 拼接完整收货地址
func (o *Order) FullAddress() string {
	a := o.Address
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Street, a.City, a.State, a.PostalCode, a.Country)
}

// IsValidPaymentStatus 支付状态枚举校验
func IsValidPaymentStatus(s string) bool {
	return validPaymentStatuses[s]
}

// IsValidPaymentMethod 支付方式枚举校验
func IsValidPaymentMethod(m string) bool {
	return validPaymentMethods[m]
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[0-9A-Z]{6}$`)

// NewOrderNumber 生成订单号: ORD-YYYYMMDD-RANDOM6
// 纯函数入参时间，不依赖持久层钩子
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), randomBase36(6))
}

// IsOrderNumber 判断字符串是否符合订单号格式
func IsOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(strings.ToUpper(s))
}

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidateContact 客户联系方式校验
func (o *Order) ValidateContact() error {
	if strings.TrimSpace(o.CustomerName) == "" {
		return fmt.Errorf("customer name is required")
	}
	if len(o.CustomerName) > 100 {
		return fmt.Errorf("customer name cannot exceed 100 characters")
	}
	if !emailPattern.MatchString(o.Email) {
		return fmt.Errorf("please provide a valid email")
	}
	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(o.Phone)
	if !phonePattern.MatchString(normalized) {
		return fmt.Errorf("please provide a valid phone number")
	}
	if strings.TrimSpace(o.Address.Street) == "" || strings.TrimSpace(o.Address.City) == "" ||
		strings.TrimSpace(o.Address.State) == "" || strings.TrimSpace(o.Address.PostalCode) == "" {
		return fmt.Errorf("street, city, state and postal code are required")
	}
	return nil
}
