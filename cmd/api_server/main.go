package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/api/middleware"
	v1 "github.com/vinayak200306/Veluno/api/v1"
	"github.com/vinayak200306/Veluno/internal/cache"
	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/dao/mysql"
	"github.com/vinayak200306/Veluno/internal/dao/redis"
	"github.com/vinayak200306/Veluno/internal/mq"
	"github.com/vinayak200306/Veluno/internal/payment"
	"github.com/vinayak200306/Veluno/internal/qikink"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/app"
	"github.com/vinayak200306/Veluno/pkg/logger"
	"github.com/vinayak200306/Veluno/pkg/utils"
)

func main() {
	// 加载配置
	cfg := app.BootstrapApp()

	// 设置Gin模式
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	// 初始化MySQL
	db, err := mysql.InitDB(&cfg.Database.Mysql)
	if err != nil {
		logger.Fatal("Failed to init MySQL", "err", err)
	}

	// 初始化Redis
	rdb, err := redis.InitRedis(&cfg.Database.Redis)
	if err != nil {
		logger.Fatal("Failed to init Redis", "err", err)
	}

	// 初始化MQ生产者通道池，声明基础交换机
	pool, err := mq.Init(&cfg.MQ)
	if err != nil {
		logger.Fatal("Failed to init RabbitMQ", "err", err)
	}
	defer pool.Close()
	if err := pool.EnsureBaseTopology(); err != nil {
		logger.Fatal("Failed to declare MQ topology", "err", err)
	}

	// DAO层
	orderDao := dao.NewOrderDao(db)
	productDao := dao.NewProductDao(db)
	categoryDao := dao.NewCategoryDao(db)
	adminDao := dao.NewAdminDao(db)

	// 缓存与外部服务客户端
	catalogCache := cache.NewCatalogCache(rdb, 5*time.Minute)
	eventDedup := cache.NewEventDedup(rdb, 24*time.Hour)
	gateway := payment.NewRazorpayClient(&cfg.Razorpay, nil)
	qikinkTokens := qikink.NewTokenProvider(&cfg.Qikink, nil)
	qikinkClient := qikink.NewClient(&cfg.Qikink, qikinkTokens, nil)

	// Service层
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	orderService := service.NewOrderService(orderDao, productDao, pool)
	paymentService := service.NewPaymentService(&cfg.Razorpay, gateway, orderDao, eventDedup)
	productService := service.NewProductService(productDao, catalogCache)
	categoryService := service.NewCategoryService(categoryDao, catalogCache)
	adminService := service.NewAdminService(adminDao, jwtUtil)
	syncService := service.NewSyncService(qikinkClient, productDao, catalogCache)

	// 处理器
	orderHandler := v1.NewOrderHandler(orderService)
	productHandler := v1.NewProductHandler(productService, catalogCache)
	categoryHandler := v1.NewCategoryHandler(categoryService)
	paymentHandler := v1.NewPaymentHandler(paymentService)
	adminHandler := v1.NewAdminHandler(adminService, syncService)

	r := gin.Default()

	// 全局限流
	r.Use(middleware.GlobalRateLimit(cfg))

	// 健康检查接口
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Veluno API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		// 店面公开路由
		productHandler.RegisterRoutes(api)
		categoryHandler.RegisterRoutes(api)
		orderHandler.RegisterRoutes(api)

		// 下单接口更严格的限流
		checkout := api.Group("")
		checkout.Use(middleware.CheckoutRateLimit(cfg))
		{
			checkout.POST("/checkout", orderHandler.CreateOrder)
		}

		// 支付路由（独立限流，webhook来自网关不走收银台限流桶）
		pay := api.Group("")
		pay.Use(middleware.PaymentRateLimit(cfg))
		{
			paymentHandler.RegisterRoutes(pay)
		}

		// 管理员登录（无需认证）
		admin := api.Group("/admin")
		adminHandler.RegisterAuthRoutes(admin)

		// 管理后台受保护路由
		protected := admin.Group("")
		protected.Use(middleware.JWTAuthMiddleware(jwtUtil))
		{
			adminHandler.RegisterAdminRoutes(protected, middleware.RequireSuperadmin())
			orderHandler.RegisterAdminRoutes(protected)
			productHandler.RegisterAdminRoutes(protected)
			categoryHandler.RegisterAdminRoutes(protected)
			paymentHandler.RegisterAdminRoutes(protected)
		}
	}

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	logger.Info("API server starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start API server", "err", err)
	}
}
