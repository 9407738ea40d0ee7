package sender

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers single-token pushes through Firebase Cloud Messaging.
type FCMSender struct {
	client   messagingClient
	classify func(error) string
	logger   *zap.Logger
}

func NewFCMSender(ctx context.Context, app *firebase.App, logger *zap.Logger) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM client: %w", err)
	}
	return newFCMSender(client, logger), nil
}

func newFCMSender(client messagingClient, logger *zap.Logger) *FCMSender {
	return &FCMSender{client: client, classify: fcmErrorCode, logger: logger}
}

func (s *FCMSender) SendPush(ctx context.Context, msg PushMessage) (SendResult, error) {
	id, err := s.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	if err != nil {
		return SendResult{}, &DeliveryError{Code: s.classify(err), Err: err}
	}

	s.logger.Debug("FCM message sent", zap.String("message_id", id))
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}

// fcmErrorCode maps FCM v1 API errors onto delivery codes. The payload is fixed, so an
// INVALID_ARGUMENT answer on a single-token send means the token itself is malformed.
func fcmErrorCode(err error) string {
	switch {
	case messaging.IsUnregistered(err):
		return CodeUnregistered
	case messaging.IsInvalidArgument(err):
		return CodeInvalidToken
	case messaging.IsSenderIDMismatch(err):
		return CodeSenderMismatch
	case messaging.IsQuotaExceeded(err):
		return CodeQuotaExceeded
	case messaging.IsUnavailable(err):
		return CodeUnavailable
	case messaging.IsInternal(err):
		return CodeInternal
	default:
		return CodeUnknown
	}
}
