package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// 商品类目枚举
const (
	CategoryMen         = "Men"
	CategoryWomen       = "Women"
	CategoryKids        = "Kids"
	CategoryAccessories = "Accessories"
	CategoryFootwear    = "Footwear"
	CategoryActivewear  = "Activewear"
)

var validCategories = map[string]bool{
	CategoryMen:         true,
	CategoryWomen:       true,
	CategoryKids:        true,
	CategoryAccessories: true,
	CategoryFootwear:    true,
	CategoryActivewear:  true,
}

var validSizes = map[string]bool{
	"XS": true, "S": true, "M": true, "L": true,
	"XL": true, "XXL": true, "2XL": true, "3XL": true,
}

type Product struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU             string    `gorm:"size:40;uniqueIndex" json:"sku"`
	QikinkProductID string    `gorm:"size:64;index" json:"qikink_product_id,omitempty"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Category        string    `gorm:"size:40;not null;index:idx_category_active" json:"category"`
	Sizes           string    `gorm:"size:100;not null" json:"sizes"`  // comma separated, subset of size enum
	Colors          string    `gorm:"size:200" json:"colors"`          // comma separated
	Images          string    `gorm:"type:text" json:"images"`         // comma separated URLs, first is primary
	Stock           int32     `gorm:"not null;default:0" json:"stock"` // never negative, mutated only through order reservation
	IsActive        bool      `gorm:"default:true;index:idx_category_active" json:"is_active"`
	IsFeatured      bool      `gorm:"default:false" json:"is_featured"`
	Discount        float64   `gorm:"type:decimal(5,2);default:0" json:"discount"` // percent, 0-100
	Brand           string    `gorm:"size:100" json:"brand"`
	Tags            string    `gorm:"size:300" json:"tags"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Product) TableName() string {
	return "products"
}

// EffectivePrice 折后单价，下单时以该价格入账
func (p *Product) EffectivePrice() float64 {
	if p.Discount > 0 {
		return p.Price - p.Price*p.Discount/100
	}
	return p.Price
}

// HasSize 校验尺码是否在该商品可售尺码内
func (p *Product) HasSize(size string) bool {
	for _, s := range strings.Split(p.Sizes, ",") {
		if strings.TrimSpace(s) == size {
			return true
		}
	}
	return false
}

// PrimaryImage 商品主图（图片列表的第一张）
func (p *Product) PrimaryImage() string {
	if p.Images == "" {
		return ""
	}
	if i := strings.IndexByte(p.Images, ','); i >= 0 {
		return p.Images[:i]
	}
	return p.Images
}

// Validate 创建/更新商品前的字段校验
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be greater than 0")
	}
	if !validCategories[p.Category] {
		return fmt.Errorf("%q is not a valid category", p.Category)
	}
	sizes := strings.Split(p.Sizes, ",")
	if p.Sizes == "" || len(sizes) == 0 {
		return fmt.Errorf("product must have at least one size")
	}
	for _, s := range sizes {
		if !validSizes[strings.TrimSpace(s)] {
			return fmt.Errorf("%q is not a valid size", strings.TrimSpace(s))
		}
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if p.Discount < 0 || p.Discount > 100 {
		return fmt.Errorf("discount must be between 0 and 100")
	}
	return nil
}

// IsValidCategory 类目枚举校验
func IsValidCategory(c string) bool {
	return validCategories[c]
}

// IsValidSize 尺码枚举校验
func IsValidSize(s string) bool {
	return validSizes[s]
}

// NewSKU 生成商品SKU: CAT-TIMESTAMP36-RAND4
// 纯函数入参时间，生成规则不挂在持久层钩子上
func NewSKU(category string, now time.Time) string {
	prefix := strings.ToUpper(category)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", prefix, ts, randomBase36(4))
}

// randomBase36 生成指定长度的大写base36随机串
func randomBase36(n int) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand 不可用时退化为时钟低位
			b[i] = alphabet[time.Now().UnixNano()%int64(len(alphabet))]
			continue
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
