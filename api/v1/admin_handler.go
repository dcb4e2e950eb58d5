package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/e"
)

type AdminHandler struct {
	admins *service.AdminService
	sync   *service.SyncService
}

func NewAdminHandler(admins *service.AdminService, sync *service.SyncService) *AdminHandler {
	return &AdminHandler{admins: admins, sync: sync}
}

// Login 管理员登录
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	result, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, result)
}

// Register 创建管理员账号，仅超管
func (h *AdminHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONCode(c, e.INVALID_PARAMS)
		return
	}

	admin, err := h.admins.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusCreated, admin)
}

// Profile 当前管理员信息
func (h *AdminHandler) Profile(c *gin.Context) {
	adminID, ok := c.Get("admin_id")
	if !ok {
		JSONCode(c, e.ERROR_AUTH)
		return
	}

	admin, err := h.admins.Profile(c.Request.Context(), adminID.(int64))
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, admin)
}

// TriggerSync 手动触发代发货目录同步
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	result, err := h.sync.SyncCatalog(c.Request.Context())
	if err != nil {
		JSONError(c, err)
		return
	}
	JSONData(c, http.StatusOK, result)
}

// RegisterAuthRoutes 注册无需认证的登录路由
func (h *AdminHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}

// RegisterAdminRoutes 注册需要JWT认证的管理路由
// register 额外套 RequireSuperadmin 守卫，由调用方挂载
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, superadminOnly gin.HandlerFunc) {
	rg.GET("/profile", h.Profile)
	rg.POST("/auth/register", superadminOnly, h.Register)
	rg.POST("/sync/products", h.TriggerSync)
}
