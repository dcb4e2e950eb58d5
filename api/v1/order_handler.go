package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder 客户下单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), &req)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusCreated, order)
}

// GetOrder 按ID查询订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, order)
}

// TrackOrder 客户按订单号查单
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	order, err := h.orders.Track(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, order)
}

// ListOrders 管理后台订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	f := dao.OrderFilter{
		OrderStatus:   c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Search:        c.Query("search"),
	}
	f.Page, f.PageSize = parsePage(c, 20)

	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.StartDate = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// 含当天
			end := t.Add(24*time.Hour - time.Second)
			f.EndDate = &end
		}
	}

	orders, total, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

// OrderStats 仪表盘统计
func (h *OrderHandler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, stats)
}

// UpdateOrderStatus 管理员推进订单状态
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	var req struct {
		Status         string `json:"status" binding:"required"`
		TrackingNumber string `json:"tracking_number"`
		Note           string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), orderID,
		req.Status, req.TrackingNumber, adminActor(c), req.Note)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, order)
}

// UpdateOrderPayment 管理员修改支付状态
func (h *OrderHandler) UpdateOrderPayment(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
		PaymentID     string `json:"payment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	order, err := h.orders.UpdatePayment(c.Request.Context(), orderID, req.PaymentStatus, req.PaymentID)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, order)
}

// CancelOrder 管理员取消订单并回补库存
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.orders.Cancel(c.Request.Context(), orderID, req.Reason, adminActor(c))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, order)
}

// RegisterRoutes 注册店面订单路由
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/track/:orderNumber", h.TrackOrder)
	}
}

// RegisterAdminRoutes 注册管理后台订单路由，需JWT认证
func (h *OrderHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.GET("/stats", h.OrderStats)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.UpdateOrderStatus)
		orders.PUT("/:id/payment", h.UpdateOrderPayment)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// adminActor 从JWT注入的上下文里取操作者标识
func adminActor(c *gin.Context) string {
	if email, ok := c.Get("admin_email"); ok {
		if s, ok := email.(string); ok && s != "" {
			return s
		}
	}
	return "admin"
}

// parsePage 解析分页参数
func parsePage(c *gin.Context, defaultSize int32) (int32, int32) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(int(defaultSize))))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = int(defaultSize)
	}
	return int32(page), int32(pageSize)
}
