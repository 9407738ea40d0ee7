package sender

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type PushSender interface {
	SendPush(ctx context.Context, msg PushMessage) (SendResult, error)
}

// Delivery error codes, named after the FCM error codes the mobile SDKs report.
const (
	CodeUnregistered   = "messaging/registration-token-not-registered"
	CodeInvalidToken   = "messaging/invalid-registration-token"
	CodeSenderMismatch = "messaging/mismatched-credential"
	CodeQuotaExceeded  = "messaging/message-rate-exceeded"
	CodeUnavailable    = "messaging/server-unavailable"
	CodeInternal       = "messaging/internal-error"
	CodeUnknown        = "messaging/unknown-error"
)

// DeliveryError is a typed push failure.
type DeliveryError struct {
	Code string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push delivery failed (%s): %v", e.Code, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsTokenInvalid reports whether err means the token will never be deliverable again.
// A sender mismatch points at the service credentials, not the token, so it is not included.
func IsTokenInvalid(err error) bool {
	var de *DeliveryError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case CodeUnregistered, CodeInvalidToken:
		return true
	}
	return false
}
