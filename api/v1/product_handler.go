package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/internal/cache"
	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type ProductHandler struct {
	products *service.ProductService
	cache    *cache.CatalogCache // optional, caches rendered listing pages
}

func NewProductHandler(products *service.ProductService, pageCache *cache.CatalogCache) *ProductHandler {
	return &ProductHandler{products: products, cache: pageCache}
}

// GetProduct 获取单个商品信息
func (h *ProductHandler) GetProduct(c *gin.Context) {
	// 获取参数
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	product, err := h.products.Get(c.Request.Context(), productID)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, product)
}

// GetProductBySKU 按SKU查询商品
func (h *ProductHandler) GetProductBySKU(c *gin.Context) {
	product, err := h.products.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, product)
}

// ListProducts 店面商品列表。
// 渲染结果按查询串整页缓存，商品写入时通过版本号整体失效
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var cacheKey string
	if h.cache != nil {
		cacheKey = h.cache.PageKey(ctx, c.Request.URL.RawQuery)
		if payload, ok := h.cache.Get(ctx, cacheKey); ok {
			c.Data(http.StatusOK, "application/json", payload)
			return
		}
	}

	f := productFilterFromQuery(c)
	products, total, err := h.products.List(ctx, f)
	if err != nil {
		JSONError(c, err)
		return
	}

	body := gin.H{
		"code":    e.SUCCESS,
		"message": e.GetMsg(e.SUCCESS),
		"data": gin.H{
			"products": products,
			"total":    total,
		},
	}
	if h.cache != nil {
		if payload, err := json.Marshal(body); err == nil {
			h.cache.Set(ctx, cacheKey, payload)
		}
	}
	c.JSON(http.StatusOK, body)
}

// AdminListProducts 后台商品列表，可见下架商品
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	f := productFilterFromQuery(c)
	if c.Query("active_only") == "true" {
		f.ActiveOnly = true
	}
	products, total, err := h.products.AdminList(c.Request.Context(), f)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, gin.H{
		"products": products,
		"total":    total,
	})
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	p.ID = 0

	created, err := h.products.Create(c.Request.Context(), &p)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusCreated, created)
}

// UpdateProduct 更新商品
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	p.ID = productID

	updated, err := h.products.Update(c.Request.Context(), &p)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, updated)
}

// DeleteProduct 下架商品（软删除）
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	if err := h.products.Deactivate(c.Request.Context(), productID); err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, gin.H{"deactivated": true})
}

// RegisterRoutes 注册店面商品路由
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/sku/:sku", h.GetProductBySKU)
	}
}

// RegisterAdminRoutes 注册管理后台商品路由，需JWT认证
func (h *ProductHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", h.AdminListProducts)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func productFilterFromQuery(c *gin.Context) dao.ProductFilter {
	f := dao.ProductFilter{
		Keyword:      c.Query("search"),
		Category:     c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		f.MaxPrice = v
	}
	f.Page, f.PageSize = parsePage(c, 12)
	return f
}
