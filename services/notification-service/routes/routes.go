package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pheebyy/carelink/services/common/auth"
	"github.com/pheebyy/carelink/services/notification-service/controllers"
	"github.com/pheebyy/carelink/services/notification-service/middleware"
)

func RegisterRoutes(router *gin.Engine, controller *controllers.NotificationController, validator *auth.TokenValidator, triggerSecret string) {
	// Public
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification-service"})
	})

	// Internal trigger, called by the document-write hook
	router.POST("/events/message-created", middleware.TriggerAuth(triggerSecret), controller.MessageCreated)

	// Admin only
	admin := router.Group("/notifications", middleware.AuthMiddleware(validator), middleware.AdminOnly())
	{
		admin.GET("/log", controller.GetNotificationLogs)
	}
}
