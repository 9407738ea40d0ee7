package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/services"
)

// MessageHandler turns message-created queue bodies into fan-outs.
type MessageHandler struct {
	service services.NotificationService
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
}

// NewMessageHandler returns a handler for awspkg.SQSConsumer. metrics may be nil.
func NewMessageHandler(svc services.NotificationService, metrics awspkg.MetricsRecorder, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{service: svc, metrics: metrics, logger: logger}
}

// snsEnvelope unwraps the SNS → SQS message wrapper
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// Handle always returns nil so the message is deleted: the fan-out never fails, and an
// unparseable body would otherwise loop forever.
func (h *MessageHandler) Handle(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		h.logger.Error("received empty SQS message body")
		return nil
	}

	payload := unwrapEnvelope(body)

	var evt models.MessageCreatedEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		h.logger.Error("failed to unmarshal message-created event", zap.Error(err))
		return nil
	}

	report := h.service.OnMessageCreated(ctx, &evt)
	if h.metrics != nil {
		_ = h.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"Service": "notification-service"})
	}
	h.logger.Debug("message-created event handled",
		zap.String("conversation_id", evt.ConversationID),
		zap.Int("sent", report.Sent),
	)
	return nil
}

// unwrapEnvelope returns the inner message of an SNS notification, or body itself when the
// queue is fed directly.
func unwrapEnvelope(body string) string {
	var env snsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return body
	}
	if env.Type == "Notification" && env.Message != "" {
		return env.Message
	}
	return body
}
