// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/api/handlers"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/api/middleware"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Purchasing *service.PurchasingService
	Orders     *service.OrderService
	PriceLists *service.PriceListService
	Receiving  *service.ReceivingService
	Sessions   *service.SessionService

	// Hub serves the websocket stream; nil disables /ws.
	Hub      http.Handler
	Defaults reorder.Params
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Archive-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.NoRoute(func(c *gin.Context) {
		errorResponse(c, http.StatusNotFound, "route not found")
	})

	apiGroup := router.Group("/api/v1")

	if services == nil {
		return router
	}

	if services.Hub != nil {
		apiGroup.GET("/ws", gin.WrapH(services.Hub))
	}

	if services.Purchasing != nil {
		purchasingHandler := handlers.NewPurchasingHandler(services.Purchasing, services.Defaults)
		apiGroup.GET("/suggestions", purchasingHandler.GetSuggestions)
		apiGroup.POST("/suggestions/export", purchasingHandler.ExportSuggestions)
		apiGroup.GET("/sales/overview", purchasingHandler.GetSalesOverview)
		apiGroup.GET("/incoming", purchasingHandler.GetIncoming)
	}

	if services.Orders != nil {
		orderHandler := handlers.NewOrderHandler(services.Orders)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.GET("", orderHandler.ListOrders)
			orderGroup.POST("", orderHandler.CreateOrder)
			orderGroup.POST("/upload", orderHandler.UploadOrder)
			orderGroup.GET("/:id", orderHandler.GetOrder)
			orderGroup.DELETE("/:id", orderHandler.DeleteOrder)
			orderGroup.GET("/:id/csv", orderHandler.DownloadOrder)
		}
	}

	if services.PriceLists != nil {
		priceListHandler := handlers.NewPriceListHandler(services.PriceLists)
		priceListGroup := apiGroup.Group("/price-lists")
		{
			priceListGroup.GET("", priceListHandler.ListPriceLists)
			priceListGroup.POST("", priceListHandler.UploadPriceList)
			priceListGroup.GET("/:id", priceListHandler.GetPriceList)
			priceListGroup.DELETE("/:id", priceListHandler.DeletePriceList)
			priceListGroup.GET("/:id/csv", priceListHandler.DownloadPriceList)
			priceListGroup.GET("/:id/table", priceListHandler.GetTable)
			priceListGroup.PUT("/:id/table", priceListHandler.SaveTable)
			priceListGroup.POST("/:id/bulk-edit", priceListHandler.BulkEdit)
		}
	}

	if services.Receiving != nil {
		receivingHandler := handlers.NewReceivingHandler(services.Receiving)
		apiGroup.GET("/orders/:id/receiving/defaults", receivingHandler.GetDefaults)
		apiGroup.GET("/orders/:id/coverage", receivingHandler.GetCoverage)
		apiGroup.GET("/orders/:id/cost-exports", receivingHandler.ListExports)
		apiGroup.POST("/receiving/calculate", receivingHandler.Calculate)
		apiGroup.POST("/receiving/export", receivingHandler.Export)
	}

	if services.Sessions != nil {
		sessionHandler := handlers.NewSessionHandler(services.Sessions)
		sessionGroup := apiGroup.Group("/sessions")
		{
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.PUT("/:id", sessionHandler.SaveSession)
			sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)
		}
	}

	return router
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
