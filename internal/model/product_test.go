package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validProduct() *Product {
	return &Product{
		Name:     "Classic Cotton Tee",
		Price:    499,
		Category: CategoryMen,
		Sizes:    "S,M,L,XL",
		Colors:   "Black,White",
		Images:   "https://cdn.example.com/tee-front.jpg,https://cdn.example.com/tee-back.jpg",
		Stock:    50,
	}
}

func TestEffectivePrice(t *testing.T) {
	p := validProduct()
	assert.Equal(t, 499.0, p.EffectivePrice())

	p.Discount = 10
	assert.InDelta(t, 449.1, p.EffectivePrice(), 0.001)

	p.Price = 500
	p.Discount = 100
	assert.Equal(t, 0.0, p.EffectivePrice())
}

func TestHasSize(t *testing.T) {
	p := validProduct()
	assert.True(t, p.HasSize("M"))
	assert.True(t, p.HasSize("XL"))
	assert.False(t, p.HasSize("3XL"))
	assert.False(t, p.HasSize(""))

	// tolerate spacing around the separators
	p.Sizes = "S, M , L"
	assert.True(t, p.HasSize("M"))
}

func TestPrimaryImage(t *testing.T) {
	p := validProduct()
	assert.Equal(t, "https://cdn.example.com/tee-front.jpg", p.PrimaryImage())

	p.Images = "single.jpg"
	assert.Equal(t, "single.jpg", p.PrimaryImage())

	p.Images = ""
	assert.Equal(t, "", p.PrimaryImage())
}

func TestProductValidate(t *testing.T) {
	assert.NoError(t, validProduct().Validate())

	p := validProduct()
	p.Name = " "
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Price = 0
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Category = "Gadgets"
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Sizes = "S,HUGE"
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Sizes = ""
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Discount = 120
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Stock = -1
	assert.Error(t, p.Validate())
}

func TestNewSKU(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	sku := NewSKU(CategoryActivewear, now)

	parts := strings.Split(sku, "-")
	assert.Len(t, parts, 3)
	assert.Equal(t, "ACT", parts[0])
	assert.Equal(t, strings.ToUpper(sku), sku, "SKU must be upper case")
	assert.Len(t, parts[2], 4)

	// short category names are used whole
	sku = NewSKU(CategoryMen, now)
	assert.True(t, strings.HasPrefix(sku, "MEN-"))
}

func TestCategoryEnums(t *testing.T) {
	assert.True(t, IsValidCategory(CategoryWomen))
	assert.False(t, IsValidCategory("women"))
	assert.True(t, IsValidSize("XXL"))
	assert.False(t, IsValidSize("xxl"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "summer-collection", Slugify("Summer Collection"))
	assert.Equal(t, "kids-t-shirts", Slugify("  Kids' T-Shirts "))
	assert.Equal(t, "sale-50-off", Slugify("Sale 50% Off!"))
}
