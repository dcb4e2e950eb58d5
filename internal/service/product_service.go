package service

import (
	"context"
	"time"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
)

// ProductStore 商品存储接口，*dao.ProductDao 为生产实现
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Deactivate(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, f dao.ProductFilter) ([]*model.Product, int64, error)
}

// CatalogInvalidator 目录缓存失效接口，*cache.CatalogCache 为生产实现
type CatalogInvalidator interface {
	Bump(ctx context.Context)
}

type ProductService struct {
	store ProductStore
	cache CatalogInvalidator // optional
}

func NewProductService(store ProductStore, cache CatalogInvalidator) *ProductService {
	return &ProductService{store: store, cache: cache}
}

// Create 新建商品。SKU缺省时按品类自动生成
func (s *ProductService) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	if p.SKU == "" {
		p.SKU = model.NewSKU(p.Category, time.Now())
	}
	if err := p.Validate(); err != nil {
		return nil, e.Newf(e.INVALID_PARAMS, "%s", err)
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, p *model.Product) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, e.Newf(e.INVALID_PARAMS, "%s", err)
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.store.GetByID(ctx, p.ID)
}

// Deactivate 下架而非删除，历史订单仍引用商品快照
func (s *ProductService) Deactivate(ctx context.Context, id int64) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	return s.store.GetBySKU(ctx, sku)
}

// List 店面商品列表，强制只返回上架商品
func (s *ProductService) List(ctx context.Context, f dao.ProductFilter) ([]*model.Product, int64, error) {
	f.ActiveOnly = true
	if f.Category != "" && !model.IsValidCategory(f.Category) {
		return nil, 0, e.Newf(e.INVALID_PARAMS, "unknown category %q", f.Category)
	}
	return s.store.List(ctx, f)
}

// AdminList 管理后台列表，可见下架商品
func (s *ProductService) AdminList(ctx context.Context, f dao.ProductFilter) ([]*model.Product, int64, error) {
	return s.store.List(ctx, f)
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Bump(ctx)
}
