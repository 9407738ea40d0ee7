package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrInvalidSignature is returned by ParseWebhook when x-paystack-signature does not match the body.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// PaystackProvider implements PaymentGateway using the Paystack REST API.
type PaystackProvider struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewPaystackProvider(secretKey, baseURL string) *PaystackProvider {
	return &PaystackProvider{
		secretKey: secretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}

	env, err := p.doRequest(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, fmt.Errorf("paystack InitializeTransaction: %w", err)
	}

	out := &InitializeResponse{Status: env.Status, Message: env.Message}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out.Data); err != nil {
			return nil, fmt.Errorf("paystack InitializeTransaction: decode data: %w", err)
		}
	}
	return out, nil
}

func (p *PaystackProvider) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	env, err := p.doRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("paystack VerifyTransaction: %w", err)
	}

	out := &Verification{Status: env.Status, Message: env.Message}
	if err := json.Unmarshal(env.Data, &out.Data); err != nil {
		return nil, fmt.Errorf("paystack VerifyTransaction: decode data: %w", err)
	}
	if err := json.Unmarshal(env.Data, &out.Raw); err != nil {
		return nil, fmt.Errorf("paystack VerifyTransaction: decode raw data: %w", err)
	}
	return out, nil
}

// WebhookEvent is a Paystack event notification.
type WebhookEvent struct {
	Event string           `json:"event"`
	Data  VerificationData `json:"data"`
}

func (e *WebhookEvent) UserID() string { return metadataString(e.Data.Metadata, "user_id") }

func (e *WebhookEvent) Role() string { return metadataString(e.Data.Metadata, "role") }

// ParseWebhook checks the HMAC-SHA512 signature of body and decodes it.
func (p *PaystackProvider) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return nil, ErrInvalidSignature
	}

	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &evt, nil
}

// doRequest returns the decoded envelope, or a *GatewayError when the gateway rejected the call.
func (p *PaystackProvider) doRequest(ctx context.Context, method, path string, body interface{}) (*paystackEnvelope, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env paystackEnvelope
	decodeErr := json.Unmarshal(respBytes, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Status {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}
