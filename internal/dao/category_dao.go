package dao

import (
	"context"
	"errors"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
	"gorm.io/gorm"
)

type CategoryDao struct {
	db *gorm.DB
}

func NewCategoryDao(db *gorm.DB) *CategoryDao {
	return &CategoryDao{
		db: db,
	}
}

func (d *CategoryDao) Create(ctx context.Context, c *model.Category) error {
	return d.db.WithContext(ctx).Create(c).Error
}

func (d *CategoryDao) Update(ctx context.Context, c *model.Category) error {
	res := d.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", c.ID).
		Select("name", "slug", "parent_id", "sort_order", "is_active").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return e.Newf(e.ERROR, "category not found")
	}
	return nil
}

// ListActive 店面导航：按 sort_order、name 排序
func (d *CategoryDao) ListActive(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	return categories, err
}

// GetByIdentifier 先按ID再按slug查找
func (d *CategoryDao) GetByIdentifier(ctx context.Context, identifier string) (*model.Category, error) {
	var c model.Category
	err := d.db.WithContext(ctx).
		Where("id = ? OR slug = ?", identifier, identifier).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.Newf(e.ERROR, "category not found")
		}
		return nil, err
	}
	return &c, nil
}
