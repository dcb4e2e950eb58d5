package dao

import (
	"context"
	"errors"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductDao struct {
	db *gorm.DB
}

func NewProductDao(db *gorm.DB) *ProductDao {
	return &ProductDao{
		db: db,
	}
}

// ProductFilter 商品列表查询条件
type ProductFilter struct {
	Keyword      string // matches name and description
	Category     string
	MinPrice     float64
	MaxPrice     float64
	FeaturedOnly bool
	ActiveOnly   bool
	Page         int32
	PageSize     int32
}

func (d *ProductDao) Create(ctx context.Context, p *model.Product) error {
	err := d.db.WithContext(ctx).Create(p).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return e.New(e.ERROR_SKU_EXISTS)
	}
	return err
}

func (d *ProductDao) Update(ctx context.Context, p *model.Product) error {
	res := d.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", p.ID).
		Select("name", "description", "price", "category", "sizes", "colors",
			"images", "is_active", "is_featured", "discount", "brand", "tags").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	return nil
}

// Deactivate 软删除：下架而不是物理删除，历史订单行不受影响
func (d *ProductDao) Deactivate(ctx context.Context, id int64) error {
	res := d.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	return nil
}

func (d *ProductDao) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
		}
		return nil, err
	}
	return &p, nil
}

func (d *ProductDao) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := d.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
		}
		return nil, err
	}
	return &p, nil
}

// List 店面/后台商品分页查询
func (d *ProductDao) List(ctx context.Context, f ProductFilter) ([]*model.Product, int64, error) {
	q := d.db.WithContext(ctx).Model(&model.Product{})

	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.MinPrice > 0 {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
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
		pageSize = 12
	}

	var products []*model.Product
	err := q.Order("created_at DESC").
		Limit(int(pageSize)).
		Offset(int((page - 1) * pageSize)).
		Find(&products).Error
	return products, total, err
}

// UpsertByQikinkID 代发货商品批量同步写入。
// SKU由外部商品ID确定性生成，MySQL按sku唯一键去重。
func (d *ProductDao) UpsertByQikinkID(ctx context.Context, p *model.Product) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "price", "category", "sizes", "colors",
			"images", "stock", "is_active", "updated_at",
		}),
	}).Create(p).Error
}
