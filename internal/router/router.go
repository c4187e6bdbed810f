package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stockhold-next/internal/cache"
	"github.com/stockhold-next/internal/config"
	adminhandlers "github.com/stockhold-next/internal/http/handlers/admin"
	publichandlers "github.com/stockhold-next/internal/http/handlers/public"
	"github.com/stockhold-next/internal/http/response"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/metrics"
	"github.com/stockhold-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	// 初始化 Handler（按用户侧/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sh"
	}
	cartRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart", redisPrefix),
		WindowSeconds: cfg.Security.CartRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CartRateLimit.MaxRequests,
	}
	cartLimiter := RateLimitMiddleware(cache.Client(), cartRule, KeyByUserID)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products/:product_id/availability", publicHandler.GetAvailability)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", cartLimiter, publicHandler.AddCartItem)
			user.POST("/cart/items/remove", cartLimiter, publicHandler.RemoveCartItem)
			user.DELETE("/cart", cartLimiter, publicHandler.ClearCart)
			user.POST("/cart/checkout", cartLimiter, publicHandler.Checkout)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 仓库管理
			authorized.GET("/warehouses", adminHandler.ListWarehouses)
			authorized.GET("/warehouses/:id", adminHandler.GetWarehouse)
			authorized.POST("/warehouses", adminHandler.CreateWarehouse)
			authorized.PUT("/warehouses/:id", adminHandler.UpdateWarehouse)
			authorized.POST("/warehouses/:id/default", adminHandler.SetDefaultWarehouse)
			authorized.DELETE("/warehouses/:id", adminHandler.DeleteWarehouse)
			authorized.GET("/diagnostics/warehouse-default", adminHandler.CheckWarehouseInvariant)

			// 库存台账
			authorized.GET("/stock", adminHandler.ListStockRecords)
			authorized.PUT("/stock", adminHandler.SetStock)
			authorized.POST("/stock/sync", adminHandler.SyncStock)

			// 预占
			authorized.POST("/reservations/sweep", adminHandler.SweepReservations)
			authorized.GET("/reservations/audit-logs", adminHandler.ListAuditLogs)

			// 订单终态（外部订单系统回调）
			authorized.GET("/orders", adminHandler.ListOrders)
			authorized.GET("/orders/:id", adminHandler.GetOrder)
			authorized.POST("/orders/:id/complete", adminHandler.CompleteOrder)
			authorized.POST("/orders/:id/fail", adminHandler.FailOrder)

			authorized.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminRouteCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

func buildAdminRouteCatalog(engine *gin.Engine) []adminRouteCatalogItem {
	if engine == nil {
		return []adminRouteCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminRouteCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, adminRouteCatalogItem{
			Module: deriveAdminRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/admin/")
	if normalized == "" {
		return "system"
	}
	segment := strings.Split(normalized, "/")[0]
	if segment == "" {
		return "system"
	}
	return segment
}
