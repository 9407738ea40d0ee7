package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pheebyy/carelink/services/common/auth"
	"github.com/pheebyy/carelink/services/payment-service/controllers"
	"github.com/pheebyy/carelink/services/payment-service/middleware"
)

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController, validator *auth.TokenValidator) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-service"})
	})

	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware(validator))
	payments.POST("/initialize", pc.InitializeTransaction)
	payments.POST("/verify", pc.VerifyTransaction)

	// signed by the gateway, no user auth
	r.POST("/paystack/webhook", pc.PaystackWebhook)
}
