package dao

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinayak200306/Veluno/internal/dao/mysql"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
)

// newTestDB 用内存SQLite跑DAO测试。
// 必须复用生产侧的gorm配置：唯一键冲突的翻译是方言层行为，
// 配置不一致时这里的断言毫无意义
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), mysql.NewGormConfig())
	require.NoError(t, err)
	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

func newDBProduct(sku string) *model.Product {
	return &model.Product{
		SKU:      sku,
		Name:     "Classic Tee",
		Price:    499,
		Category: model.CategoryMen,
		Sizes:    "M,L",
		Stock:    10,
		IsActive: true,
	}
}

func TestProductDao_Create_DuplicateSKU(t *testing.T) {
	d := NewProductDao(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, d.Create(ctx, newDBProduct("MEN-TEE-1")))

	err := d.Create(ctx, newDBProduct("MEN-TEE-1"))
	require.Error(t, err)
	assert.True(t, e.IsCode(err, e.ERROR_SKU_EXISTS),
		"duplicate SKU must surface as ERROR_SKU_EXISTS, got %v", err)

	// 不同SKU不受影响
	assert.NoError(t, d.Create(ctx, newDBProduct("MEN-TEE-2")))
}

func TestProductDao_UpsertByQikinkID_Idempotent(t *testing.T) {
	d := NewProductDao(newTestDB(t))
	ctx := context.Background()

	p := newDBProduct("QK-R1")
	p.QikinkProductID = "r1"
	require.NoError(t, d.UpsertByQikinkID(ctx, p))

	// 同一外部商品重复同步：按sku去重并更新字段，不新增行
	again := newDBProduct("QK-R1")
	again.QikinkProductID = "r1"
	again.Price = 599
	again.Stock = 25
	require.NoError(t, d.UpsertByQikinkID(ctx, again))

	got, err := d.GetBySKU(ctx, "QK-R1")
	require.NoError(t, err)
	assert.Equal(t, 599.0, got.Price)
	assert.Equal(t, int32(25), got.Stock)

	_, total, err := d.List(ctx, ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
