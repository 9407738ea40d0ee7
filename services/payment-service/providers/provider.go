package providers

import (
	"context"
	"encoding/json"
	"fmt"
)

// PaymentGateway is the outbound payment API used by the payment service.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
}

type InitializeRequest struct {
	Email     string                 `json:"email"`
	Amount    int64                  `json:"amount"`
	Reference string                 `json:"reference"`
	Currency  string                 `json:"currency"`
	Channels  []string               `json:"channels"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// InitializeResponse carries the gateway's session data unchanged.
type InitializeResponse struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type Verification struct {
	Status  bool
	Message string
	Data    VerificationData
	// Raw is the gateway's data object as received, persisted alongside the transaction.
	Raw map[string]interface{}
}

type VerificationData struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

// GatewayError is a failed gateway call: a non-2xx response or an envelope with status=false.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paystack API error (status %d): %s", e.StatusCode, e.Message)
}

// metadataString reads a string field from a metadata object. Paystack sends "" when no metadata was set.
func metadataString(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
