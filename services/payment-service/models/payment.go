package models

import "time"

// InitializeRequest starts a gateway checkout session. Amount is in minor currency units.
type InitializeRequest struct {
	Email     string                 `json:"email" binding:"required,email" validate:"required,email"`
	Amount    int64                  `json:"amount" binding:"required,gt=0" validate:"required,gt=0"`
	Reference string                 `json:"reference" binding:"required" validate:"required"`
	Channels  []string               `json:"channels,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// InitializeResult passes the gateway's session data through unchanged.
type InitializeResult struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// VerifyRequest binds without userId: the controller fills it from the caller before validation.
type VerifyRequest struct {
	Reference string `json:"reference" binding:"required" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	Role      string `json:"role"`
}

type VerificationResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    VerificationData `json:"data"`
}

type VerificationData struct {
	Reference             string     `json:"reference"`
	Status                string     `json:"status"`
	Amount                float64    `json:"amount"`
	Currency              string     `json:"currency,omitempty"`
	CaregiverCommission   float64    `json:"caregiverCommission"`
	ClientFee             float64    `json:"clientFee"`
	TotalRevenue          float64    `json:"totalRevenue"`
	CommissionRateVersion string     `json:"commissionRateVersion"`
	PremiumActivated      bool       `json:"premiumActivated"`
	PremiumExpiry         *time.Time `json:"premiumExpiry,omitempty"`
}

const (
	EventPaymentVerified  = "payment_verified"
	EventPremiumActivated = "premium_activated"
)

// PaymentEvent is published to SNS after a successful verification.
type PaymentEvent struct {
	Type             string     `json:"type"`
	Reference        string     `json:"reference"`
	UserID           string     `json:"user_id"`
	Role             string     `json:"role"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency"`
	TotalRevenue     float64    `json:"total_revenue"`
	PremiumActivated bool       `json:"premium_activated"`
	PremiumExpiry    *time.Time `json:"premium_expiry,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}
