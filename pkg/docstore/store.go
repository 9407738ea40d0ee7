// Package docstore is the keyed document store shared by the payment and notification services.
// Firestore is the default backend; DynamoDB is available for AWS-only deployments.
package docstore

import (
	"context"
	"errors"
	"time"
)

const (
	CollectionTransactions  = "transactions"
	CollectionUsers         = "users"
	CollectionConversations = "conversations"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Transaction is one verified gateway payment, keyed by its reference.
type Transaction struct {
	Reference             string                 `firestore:"reference" dynamodbav:"reference"`
	UserID                string                 `firestore:"userId" dynamodbav:"userId"`
	Role                  string                 `firestore:"role" dynamodbav:"role"`
	Amount                float64                `firestore:"amount" dynamodbav:"amount"`
	Currency              string                 `firestore:"currency" dynamodbav:"currency"`
	CaregiverCommission   float64                `firestore:"caregiverCommission" dynamodbav:"caregiverCommission"`
	ClientFee             float64                `firestore:"clientFee" dynamodbav:"clientFee"`
	TotalRevenue          float64                `firestore:"totalRevenue" dynamodbav:"totalRevenue"`
	CommissionRateVersion string                 `firestore:"commissionRateVersion" dynamodbav:"commissionRateVersion"`
	CaregiverRate         float64                `firestore:"caregiverRate" dynamodbav:"caregiverRate"`
	ClientRate            float64                `firestore:"clientRate" dynamodbav:"clientRate"`
	Status                string                 `firestore:"status" dynamodbav:"status"`
	PaymentType           string                 `firestore:"paymentType" dynamodbav:"paymentType"`
	GatewayPayload        map[string]interface{} `firestore:"gatewayPayload" dynamodbav:"gatewayPayload,omitempty"`
	CreatedAt             time.Time              `firestore:"createdAt,serverTimestamp" dynamodbav:"createdAt"`
}

// User carries the user fields this backend reads or mutates.
type User struct {
	ID            string     `firestore:"-" dynamodbav:"id"`
	DisplayName   string     `firestore:"displayName" dynamodbav:"displayName"`
	FCMTokens     []string   `firestore:"fcmTokens" dynamodbav:"fcmTokens,stringset,omitempty"`
	IsPremium     bool       `firestore:"isPremium" dynamodbav:"isPremium"`
	PremiumSince  *time.Time `firestore:"premiumSince" dynamodbav:"premiumSince,omitempty"`
	PremiumExpiry *time.Time `firestore:"premiumExpiry" dynamodbav:"premiumExpiry,omitempty"`
}

type Conversation struct {
	ID           string   `firestore:"-" dynamodbav:"id"`
	Participants []string `firestore:"participants" dynamodbav:"participants"`
}

// Store is the full document API. Services depend on narrower interfaces of their own.
type Store interface {
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	GetUser(ctx context.Context, id string) (*User, error)
	// PutTransaction fully replaces the document at tx.Reference.
	PutTransaction(ctx context.Context, tx *Transaction) error
	// ActivatePremium overwrites the premium fields of an existing user.
	ActivatePremium(ctx context.Context, userID string, since, expiry time.Time) error
	// RemoveToken atomically removes one element from the user's token set. A missing user is not an error.
	RemoveToken(ctx context.Context, userID, token string) error
	Close() error
}
