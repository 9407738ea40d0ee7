package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pheebyy/carelink/services/payment-service/models"
	"github.com/pheebyy/carelink/services/payment-service/providers"
)

const maxWebhookBody = 1 << 20

// PaystackWebhook receives gateway events. Once the signature is valid it always answers 200:
// verification is idempotent and the client can still call verify itself.
func (pc *PaymentController) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	evt, err := pc.Webhook.ParseWebhook(body, c.GetHeader("x-paystack-signature"))
	if err != nil {
		if errors.Is(err, providers.ErrInvalidSignature) {
			pc.Logger.Warn("Paystack webhook signature verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		pc.Logger.Warn("Malformed Paystack webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	pc.Logger.Info("Processing Paystack webhook",
		zap.String("event_type", evt.Event),
		zap.String("reference", evt.Data.Reference),
	)

	switch evt.Event {
	case "charge.success":
		pc.handleChargeSuccess(c, evt)
	default:
		pc.Logger.Info("Unhandled webhook event type", zap.String("event_type", evt.Event))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (pc *PaymentController) handleChargeSuccess(c *gin.Context, evt *providers.WebhookEvent) {
	userID := evt.UserID()
	if evt.Data.Reference == "" || userID == "" {
		pc.Logger.Warn("Missing reference or user_id metadata in charge.success",
			zap.String("reference", evt.Data.Reference),
		)
		return
	}

	_, err := pc.Service.Verify(c.Request.Context(), &models.VerifyRequest{
		Reference: evt.Data.Reference,
		UserID:    userID,
		Role:      evt.Role(),
	})
	if err != nil {
		pc.Logger.Error("Webhook verification failed",
			zap.String("reference", evt.Data.Reference),
			zap.Error(err),
		)
	}
}
