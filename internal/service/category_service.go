package service

import (
	"context"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type CategoryService struct {
	dao   *dao.CategoryDao
	cache CatalogInvalidator // optional
}

func NewCategoryService(d *dao.CategoryDao, cache CatalogInvalidator) *CategoryService {
	return &CategoryService{dao: d, cache: cache}
}

// Create 新建分类，slug缺省时由名称生成
func (s *CategoryService) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.Name == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "category name is required")
	}
	if c.Slug == "" {
		c.Slug = model.Slugify(c.Name)
	}
	if err := s.dao.Create(ctx, c); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.Slug == "" && c.Name != "" {
		c.Slug = model.Slugify(c.Name)
	}
	if err := s.dao.Update(ctx, c); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	return s.dao.ListActive(ctx)
}

// Get 按数字ID或slug查询
func (s *CategoryService) Get(ctx context.Context, identifier string) (*model.Category, error) {
	return s.dao.GetByIdentifier(ctx, identifier)
}
