package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/gomall/config"
	_ "github.com/d60-Lab/gomall/docs"
	"github.com/d60-Lab/gomall/internal/api/handler"
	"github.com/d60-Lab/gomall/internal/api/middleware"
	"github.com/d60-Lab/gomall/internal/repository"
	"github.com/d60-Lab/gomall/pkg/token"
)

// New 组装中间件与全部路由
// 管理端订单接口挂在 /admin 下，gin 的路由树不允许 /orders/all 与 /orders/:id 并存
func New(cfg *config.Config, h *handler.Handler, maker *token.Maker, userRepo repository.UserRepository) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Otel.Enabled {
		r.Use(otelgin.Middleware("gomall"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.RateLimit.RPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "gomall",
			"version": "1.0.0",
		})
	})
	r.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to Gomall API",
			"version": "1.0.0",
			"endpoints": gin.H{
				"auth":       "/api/v1/auth",
				"users":      "/api/v1/users",
				"products":   "/api/v1/products",
				"categories": "/api/v1/categories",
				"cart":       "/api/v1/cart",
				"orders":     "/api/v1/orders",
				"health":     "/health",
				"swagger":    "/swagger/index.html",
			},
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.Auth(maker)
	admin := middleware.AdminOnly(userRepo)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
		}

		users := v1.Group("/users", auth)
		{
			users.GET("/profile", h.GetProfile)
			users.PUT("/profile", h.UpdateProfile)
			users.GET("/addresses", h.ListAddresses)
			users.POST("/addresses", h.CreateAddress)
			users.PUT("/addresses/:id", h.UpdateAddress)
			users.DELETE("/addresses/:id", h.DeleteAddress)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.GET("/:id/reviews", h.ListReviews)
			products.POST("/:id/reviews", auth, h.CreateReview)

			products.POST("", auth, admin, h.CreateProduct)
			products.PUT("/:id", auth, admin, h.UpdateProduct)
			products.DELETE("/:id", auth, admin, h.DeleteProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", h.ListCategories)
			categories.POST("", auth, admin, h.CreateCategory)
		}

		cart := v1.Group("/cart", auth)
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddToCart)
			cart.PUT("/items/:id", h.UpdateCartItem)
			cart.DELETE("/items/:id", h.RemoveCartItem)
		}

		orders := v1.Group("/orders", auth)
		{
			orders.POST("", h.Checkout)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.POST("/:id/cancel", h.CancelOrder)
		}

		adminGroup := v1.Group("/admin", auth, admin)
		{
			adminGroup.GET("/orders", h.AdminListOrders)
			adminGroup.PUT("/orders/:id", h.AdminUpdateOrder)
		}
	}

	return r
}
