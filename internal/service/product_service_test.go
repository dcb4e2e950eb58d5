package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type fakeProductStore struct {
	byID       map[int64]*model.Product
	nextID     int64
	lastFilter dao.ProductFilter
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{byID: map[int64]*model.Product{}}
}

func (s *fakeProductStore) Create(ctx context.Context, p *model.Product) error {
	for _, q := range s.byID {
		if q.SKU == p.SKU {
			return e.New(e.ERROR_SKU_EXISTS)
		}
	}
	s.nextID++
	p.ID = s.nextID
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *fakeProductStore) Update(ctx context.Context, p *model.Product) error {
	if _, ok := s.byID[p.ID]; !ok {
		return e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *fakeProductStore) Deactivate(ctx context.Context, id int64) error {
	p, ok := s.byID[id]
	if !ok {
		return e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	p.IsActive = false
	return nil
}

func (s *fakeProductStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProductStore) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	for _, p := range s.byID {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
}

func (s *fakeProductStore) List(ctx context.Context, f dao.ProductFilter) ([]*model.Product, int64, error) {
	s.lastFilter = f
	var out []*model.Product
	for _, p := range s.byID {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(ctx context.Context) { c.bumps++ }

func TestProductService_CreateGeneratesSKU(t *testing.T) {
	store := newFakeProductStore()
	inv := &countingInvalidator{}
	svc := NewProductService(store, inv)

	p := &model.Product{
		Name:     "Everyday Hoodie",
		Price:    1299,
		Category: model.CategoryWomen,
		Sizes:    "S,M,L",
		Stock:    10,
	}
	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.SKU, "WOM-"), "SKU derives from the category")
	assert.Equal(t, 1, inv.bumps, "catalog cache is invalidated on create")
}

func TestProductService_CreateValidation(t *testing.T) {
	svc := NewProductService(newFakeProductStore(), nil)

	_, err := svc.Create(context.Background(), &model.Product{Name: "x", Price: 0, Category: model.CategoryMen, Sizes: "M"})
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))
}

func TestProductService_ListForcesActiveOnly(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store, nil)

	active := &model.Product{Name: "A", Price: 10, Category: model.CategoryMen, Sizes: "M", IsActive: true, SKU: "A1"}
	hidden := &model.Product{Name: "B", Price: 10, Category: model.CategoryMen, Sizes: "M", IsActive: false, SKU: "B1"}
	require.NoError(t, store.Create(context.Background(), active))
	require.NoError(t, store.Create(context.Background(), hidden))

	products, total, err := svc.List(context.Background(), dao.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, products, 1)
	assert.True(t, store.lastFilter.ActiveOnly)

	// the admin view sees everything
	_, total, err = svc.AdminList(context.Background(), dao.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestProductService_ListRejectsUnknownCategory(t *testing.T) {
	svc := NewProductService(newFakeProductStore(), nil)
	_, _, err := svc.List(context.Background(), dao.ProductFilter{Category: "Gadgets"})
	assert.True(t, e.IsCode(err, e.INVALID_PARAMS))
}

func TestProductService_Deactivate(t *testing.T) {
	store := newFakeProductStore()
	inv := &countingInvalidator{}
	svc := NewProductService(store, inv)

	p := &model.Product{Name: "A", Price: 10, Category: model.CategoryMen, Sizes: "M", IsActive: true, SKU: "A1"}
	require.NoError(t, store.Create(context.Background(), p))

	require.NoError(t, svc.Deactivate(context.Background(), p.ID))
	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, inv.bumps)

	err = svc.Deactivate(context.Background(), 999)
	assert.True(t, e.IsCode(err, e.ERROR_PRODUCT_NOT_EXISTS))
}
