package handler

import (
	"net/http"

	"github.com/Surya12v/project-s/emi-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminAPIKey string, paymentLimiter, webhookLimiter *middleware.RateLimiter, emiHandler *EmiHandler, adminHandler *EmiAdminHandler, planHandler *EmiPlanHandler, webhookHandler *WebhookHandler, wsHandler *WebSocketHandler) {
	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeAPIDoc)

	// Notification stream (token in query string)
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// Public catalog and quote routes
	api.POST("/emi/quote", emiHandler.Quote)
	api.GET("/products/:productId/emi-plan", planHandler.GetEmiPlan)

	// EMI order routes (protected, owner-scoped)
	orders := api.Group("/emi-orders")
	orders.Use(authMiddleware.Authenticate())
	orders.GET("", emiHandler.ListEmiOrders)
	orders.GET("/:id", emiHandler.GetEmiOrder)
	orders.GET("/:id/payments", emiHandler.GetPaymentHistory)
	orders.PUT("/:id/auto-pay", emiHandler.SetAutoPay)
	orders.POST("/:id/installments/:index/pay", emiHandler.PayInstallment,
		middleware.RateLimitMiddleware(paymentLimiter, middleware.UserOrIPKey))

	// Gateway webhooks (HMAC-signed)
	webhooks := api.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(webhookLimiter, middleware.IPKey))
	webhooks.POST("/gateway", webhookHandler.HandleGateway)

	// Back-office and order placement routes (admin key)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(adminAPIKey))
	admin.POST("/emi-orders", adminHandler.CreateEmiOrder)
	admin.GET("/emi-orders", adminHandler.ListEmiOrders)
	admin.GET("/emi-orders/:id", adminHandler.GetEmiOrder)
	admin.POST("/emi-orders/:id/cancel", adminHandler.CancelEmiOrder)
	admin.POST("/emi-orders/:id/installments/:index/pay", adminHandler.RecordPayment)
	admin.POST("/emi-batch/run", adminHandler.RunBatch)
	admin.PUT("/products/:productId/emi-plan", adminHandler.SetEmiPlan)
}
