package server

import (
	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/handlers"
)

type routes struct {
	health           echo.HandlerFunc
	auth             *handlers.AuthHandler
	shopping         *handlers.ShoppingHandler
	products         *handlers.ProductHandler
	notifications    *handlers.NotificationHandler
	admin            *handlers.AdminHandler
	authMiddleware   echo.MiddlewareFunc
	streamMiddleware echo.MiddlewareFunc
	adminMiddleware  echo.MiddlewareFunc
	authRateLimiter  echo.MiddlewareFunc
	aiRateLimiter    echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, r routes) {
	e.GET("/health", r.health)

	api := e.Group("/api/v1")

	authGroup := api.Group("/auth", r.authRateLimiter)
	authGroup.POST("/register", r.auth.Register)
	authGroup.POST("/login", r.auth.Login)
	authGroup.GET("/me", r.auth.Me, r.authMiddleware)

	products := api.Group("/products")
	products.GET("", r.products.List)
	products.GET("/:id", r.products.Get)

	lists := api.Group("/shopping-lists", r.authMiddleware, r.aiRateLimiter)
	lists.POST("/generate", r.shopping.Generate)
	lists.POST("/export/csv", r.shopping.ExportCSV)

	notifications := api.Group("/notifications", r.streamMiddleware)
	notifications.GET("/stream", r.notifications.Stream)

	admin := api.Group("/admin", r.authMiddleware, r.adminMiddleware)
	admin.GET("/products", r.products.AdminList)
	admin.POST("/products", r.products.Create)
	admin.PUT("/products/:id", r.products.Update)
	admin.DELETE("/products/:id", r.products.Delete)
	admin.GET("/ai-requests", r.admin.ListAIRequests)
	admin.GET("/usage", r.admin.Usage)
}
