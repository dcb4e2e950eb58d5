package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/qikink"
)

type fakeCatalog struct {
	products []qikink.RemoteProduct
	err      error
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]qikink.RemoteProduct, error) {
	return f.products, f.err
}

type fakeUpserter struct {
	upserts []*model.Product
	failFor string
}

func (f *fakeUpserter) UpsertByQikinkID(ctx context.Context, p *model.Product) error {
	if f.failFor != "" && p.QikinkProductID == f.failFor {
		return fmt.Errorf("write failed")
	}
	f.upserts = append(f.upserts, p)
	return nil
}

func remoteTee(id string) qikink.RemoteProduct {
	return qikink.RemoteProduct{
		ID:          id,
		Name:        "Printed Tee " + id,
		Description: "Soft cotton tee",
		Price:       json.Number("599.00"),
		Stock:       25,
		Images:      []string{"front.jpg", "back.jpg"},
		Tags:        []string{"men", "casual"},
		Variants: []qikink.RemoteVariant{
			{Size: "m", Color: "Black"},
			{Size: "l", Color: "Black"},
			{Size: "m", Color: "White"},
		},
	}
}

func TestSyncCatalog(t *testing.T) {
	store := &fakeUpserter{}
	svc := NewSyncService(&fakeCatalog{products: []qikink.RemoteProduct{remoteTee("qk1"), remoteTee("qk2")}}, store, nil)

	result, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0, result.Skipped)

	require.Len(t, store.upserts, 2)
	p := store.upserts[0]
	assert.Equal(t, "qk1", p.QikinkProductID)
	assert.Equal(t, "QK-QK1", p.SKU)
	assert.Equal(t, 599.0, p.Price)
	assert.Equal(t, model.CategoryMen, p.Category)
	assert.Equal(t, "M,L", p.Sizes, "variant sizes deduplicated in first-seen order")
	assert.Equal(t, "Black,White", p.Colors)
	assert.Equal(t, "front.jpg,back.jpg", p.Images)
	assert.Equal(t, int32(25), p.Stock)
	assert.True(t, p.IsActive)
}

func TestSyncCatalog_SkipsMalformed(t *testing.T) {
	noID := remoteTee("")
	noPrice := remoteTee("qk2")
	noPrice.Price = json.Number("0")

	store := &fakeUpserter{}
	svc := NewSyncService(&fakeCatalog{products: []qikink.RemoteProduct{noID, noPrice, remoteTee("qk3")}}, store, nil)

	result, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 2, result.Skipped)
}

func TestSyncCatalog_WriteFailureDoesNotAbort(t *testing.T) {
	store := &fakeUpserter{failFor: "qk1"}
	svc := NewSyncService(&fakeCatalog{products: []qikink.RemoteProduct{remoteTee("qk1"), remoteTee("qk2")}}, store, nil)

	result, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncCatalog_RemoteError(t *testing.T) {
	svc := NewSyncService(&fakeCatalog{err: fmt.Errorf("upstream timeout")}, &fakeUpserter{}, nil)
	_, err := svc.SyncCatalog(context.Background())
	assert.Error(t, err)
}

func TestMapRemoteProduct_Defaults(t *testing.T) {
	r := remoteTee("qk9")
	r.Tags = []string{"unrecognized"}
	r.Variants = nil

	p, ok := mapRemoteProduct(&r)
	require.True(t, ok)
	assert.Equal(t, model.CategoryAccessories, p.Category, "unknown tags land in Accessories")
	assert.Equal(t, "M", p.Sizes, "missing variants default to one size")
}

func TestCategoryFromTags(t *testing.T) {
	assert.Equal(t, model.CategoryWomen, categoryFromTags([]string{"summer", "Womens"}))
	assert.Equal(t, model.CategoryKids, categoryFromTags([]string{"children"}))
	assert.Equal(t, model.CategoryFootwear, categoryFromTags([]string{"shoes"}))
	assert.Equal(t, model.CategoryActivewear, categoryFromTags([]string{"gym"}))
	assert.Equal(t, model.CategoryAccessories, categoryFromTags(nil))
}
