package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories 店面分类列表
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, categories)
}

// GetCategory 按ID或slug查询分类
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categories.Get(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, category)
}

// CreateCategory 创建分类
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var cat model.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	cat.ID = 0

	created, err := h.categories.Create(c.Request.Context(), &cat)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusCreated, created)
}

// UpdateCategory 更新分类
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	var cat model.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}
	cat.ID = categoryID

	updated, err := h.categories.Update(c.Request.Context(), &cat)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, updated)
}

// RegisterRoutes 注册店面分类路由
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:identifier", h.GetCategory)
	}
}

// RegisterAdminRoutes 注册管理后台分类路由，需JWT认证
func (h *CategoryHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
	}
}
