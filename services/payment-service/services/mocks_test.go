package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/pheebyy/carelink/pkg/docstore"
	"github.com/pheebyy/carelink/services/payment-service/providers"
)

type mockGateway struct {
	initResp    *providers.InitializeResponse
	initErr     error
	initCalls   int
	lastInit    providers.InitializeRequest
	verifyResp  *providers.Verification
	verifyErr   error
	verifyCalls int
}

func (m *mockGateway) InitializeTransaction(ctx context.Context, req providers.InitializeRequest) (*providers.InitializeResponse, error) {
	m.initCalls++
	m.lastInit = req
	return m.initResp, m.initErr
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*providers.Verification, error) {
	m.verifyCalls++
	return m.verifyResp, m.verifyErr
}

func successVerification(minor int64) *providers.Verification {
	return &providers.Verification{
		Status:  true,
		Message: "Verification successful",
		Data: providers.VerificationData{
			Status:    "success",
			Reference: "ref-1",
			Amount:    minor,
			Currency:  "KES",
			Channel:   "mobile_money",
		},
		Raw: map[string]interface{}{"status": "success", "reference": "ref-1", "amount": float64(minor)},
	}
}

type premiumCall struct {
	userID        string
	since, expiry time.Time
}

type mockStore struct {
	txs        []docstore.Transaction
	premiums   []premiumCall
	putErr     error
	premiumErr error
}

func (m *mockStore) PutTransaction(ctx context.Context, tx *docstore.Transaction) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *mockStore) ActivatePremium(ctx context.Context, userID string, since, expiry time.Time) error {
	if m.premiumErr != nil {
		return m.premiumErr
	}
	m.premiums = append(m.premiums, premiumCall{userID: userID, since: since, expiry: expiry})
	return nil
}

type mockEvents struct {
	types []string
	err   error
}

func (m *mockEvents) PublishEvent(ctx context.Context, topicArn, eventType string, message []byte) error {
	m.types = append(m.types, eventType)
	return m.err
}

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *mockMetrics) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name]++
	return nil
}

func (m *mockMetrics) RecordValue(ctx context.Context, name string, v float64, dims map[string]string) error {
	return m.RecordCount(ctx, name, dims)
}
