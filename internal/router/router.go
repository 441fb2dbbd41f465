package router

import (
	"fmt"
	"strings"

	"github.com/assem2023-habib/shehrezad/internal/cache"
	"github.com/assem2023-habib/shehrezad/internal/config"
	adminhandlers "github.com/assem2023-habib/shehrezad/internal/http/handlers/admin"
	publichandlers "github.com/assem2023-habib/shehrezad/internal/http/handlers/public"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按顾客/员工分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "shz"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 顾客接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			user.PUT("/cart/items/:id/beneficiaries", publicHandler.SetCartItemBeneficiaries)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/coupons", publicHandler.ApplyCoupon)
			user.GET("/cart/coupons", publicHandler.ListAppliedCoupons)
			user.DELETE("/cart/coupons/:id", publicHandler.RemoveAppliedCoupon)
			user.GET("/me/debts", publicHandler.ListMyDebts)
			user.GET("/me/debts/payments", publicHandler.ListMyDebtPayments)
			user.GET("/me/balance", publicHandler.GetMyBalance)
			user.GET("/me/notifications", publicHandler.ListMyNotifications)
			user.POST("/me/notifications/:id/read", publicHandler.MarkNotificationRead)
		}

		// 员工接口
		admin := apiV1.Group("/admin")
		{
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), StaffRBACMiddleware(c.AuthzService))
			{
				// 结单与购物车管理
				authorized.POST("/carts/confirm", adminHandler.ConfirmCart)
				authorized.GET("/carts/:code", adminHandler.GetCartByCode)
				authorized.DELETE("/cart-items/:id", adminHandler.RemoveCartItem)

				// 欠款与付款
				authorized.POST("/debts/:id/payments", adminHandler.RecordDebtPayment)
				authorized.GET("/users/:id/debts", adminHandler.ListUserDebts)
				authorized.POST("/users/:id/debts/allocate", adminHandler.AllocateUserPayment)
				authorized.GET("/users/:id/balance", adminHandler.GetUserBalance)

				// 订单查询
				authorized.GET("/orders/:id", adminHandler.GetOrder)

				// 设置管理（仅 admin 角色）
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
