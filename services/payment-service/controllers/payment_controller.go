package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/pheebyy/carelink/services/common/errors"
	"github.com/pheebyy/carelink/services/payment-service/middleware"
	"github.com/pheebyy/carelink/services/payment-service/models"
	"github.com/pheebyy/carelink/services/payment-service/providers"
	"github.com/pheebyy/carelink/services/payment-service/services"
)

// WebhookParser authenticates and decodes gateway webhooks.
type WebhookParser interface {
	ParseWebhook(body []byte, signature string) (*providers.WebhookEvent, error)
}

type PaymentController struct {
	Service services.PaymentService
	Webhook WebhookParser
	Logger  *zap.Logger
}

func NewPaymentController(svc services.PaymentService, webhook WebhookParser, logger *zap.Logger) *PaymentController {
	return &PaymentController{Service: svc, Webhook: webhook, Logger: logger}
}

// InitializeTransaction handles POST /payments/initialize
func (pc *PaymentController) InitializeTransaction(c *gin.Context) {
	var req models.InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidArgument("Invalid request body: email, amount (integer, minor units) and reference are required."))
		return
	}

	res, err := pc.Service.Initialize(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifyTransaction handles POST /payments/verify. userId and role default to the authenticated caller.
func (pc *PaymentController) VerifyTransaction(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidArgument("Invalid request body."))
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.GetUserID(c)
	}
	if req.Role == "" {
		req.Role = middleware.GetUserRole(c)
	}

	res, err := pc.Service.Verify(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
