package controllers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/pheebyy/carelink/services/common/errors"
	"github.com/pheebyy/carelink/services/payment-service/controllers"
	"github.com/pheebyy/carelink/services/payment-service/models"
	"github.com/pheebyy/carelink/services/payment-service/providers"
	"github.com/pheebyy/carelink/services/payment-service/routes"
)

// ---- concrete mock implementing services.PaymentService ----

type concreteMockSvc struct {
	initRes    *models.InitializeResult
	initErr    error
	verifyRes  *models.VerificationResult
	verifyErr  error
	verifyReqs []models.VerifyRequest
}

func (m *concreteMockSvc) Initialize(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResult, error) {
	return m.initRes, m.initErr
}

func (m *concreteMockSvc) Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error) {
	m.verifyReqs = append(m.verifyReqs, *req)
	return m.verifyRes, m.verifyErr
}

const webhookSecret = "sk_test_webhook"

func setupRouter(svc *concreteMockSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	pc := controllers.NewPaymentController(svc, providers.NewPaystackProvider(webhookSecret, "http://unused"), zap.NewNop())
	routes.RegisterPaymentRoutes(r, pc, nil)
	return r
}

func do(r *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var authed = map[string]string{"X-User-ID": "cg-1", "X-User-Role": "caregiver"}

// ---- tests ----

func TestVerify_Success(t *testing.T) {
	svc := &concreteMockSvc{verifyRes: &models.VerificationResult{
		Success: true,
		Message: "Transaction verified successfully.",
		Data:    models.VerificationData{Reference: "ref-1", Amount: 500, CaregiverCommission: 25, ClientFee: 10, TotalRevenue: 35, PremiumActivated: true},
	}}
	r := setupRouter(svc)

	w := do(r, "/payments/verify", gin.H{"reference": "ref-1", "userId": "cg-1", "role": "caregiver"}, authed)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 35.0, data["totalRevenue"])
	assert.Equal(t, true, data["premiumActivated"])
}

func TestVerify_DefaultsToCaller(t *testing.T) {
	svc := &concreteMockSvc{verifyRes: &models.VerificationResult{Success: true}}
	r := setupRouter(svc)

	w := do(r, "/payments/verify", gin.H{"reference": "ref-1"}, authed)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.verifyReqs, 1)
	assert.Equal(t, "cg-1", svc.verifyReqs[0].UserID)
	assert.Equal(t, "caregiver", svc.verifyReqs[0].Role)
}

func TestVerify_Unauthenticated(t *testing.T) {
	svc := &concreteMockSvc{}
	r := setupRouter(svc)

	w := do(r, "/payments/verify", gin.H{"reference": "ref-1"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.verifyReqs)
}

func TestVerify_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"invalid argument", apperrors.InvalidArgument("Missing reference or userId."), http.StatusBadRequest, "invalid-argument"},
		{"internal", apperrors.Internal("Payment verification failed.", nil), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&concreteMockSvc{verifyErr: tt.err})

			w := do(r, "/payments/verify", gin.H{"reference": "ref-1"}, authed)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp struct {
				Error struct {
					Status string `json:"status"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Error.Status)
		})
	}
}

func TestInitialize_Success(t *testing.T) {
	svc := &concreteMockSvc{initRes: &models.InitializeResult{
		Status: true, Message: "Authorization URL created",
		Data: map[string]interface{}{"authorization_url": "https://checkout.paystack.com/x"},
	}}
	r := setupRouter(svc)

	w := do(r, "/payments/initialize", gin.H{"email": "a@b.co", "amount": 50000, "reference": "ref-1"}, authed)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "checkout.paystack.com")
}

func TestInitialize_FractionalAmountRejected(t *testing.T) {
	r := setupRouter(&concreteMockSvc{})

	w := do(r, "/payments/initialize", gin.H{"email": "a@b.co", "amount": 500.5, "reference": "ref-1"}, authed)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid-argument")
}

func TestInitialize_BindingRejectsBadInput(t *testing.T) {
	for _, body := range []gin.H{
		{"amount": 50000, "reference": "ref-1"},
		{"email": "not-an-email", "amount": 50000, "reference": "ref-1"},
		{"email": "a@b.co", "amount": 0, "reference": "ref-1"},
		{"email": "a@b.co", "amount": 50000},
	} {
		svc := &concreteMockSvc{}
		r := setupRouter(svc)

		w := do(r, "/payments/initialize", body, authed)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid-argument")
	}
}

func TestVerify_MissingReferenceRejected(t *testing.T) {
	svc := &concreteMockSvc{}
	r := setupRouter(svc)

	w := do(r, "/payments/verify", gin.H{"userId": "cg-1"}, authed)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.verifyReqs)
}

func signed(body []byte) map[string]string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return map[string]string{"x-paystack-signature": hex.EncodeToString(mac.Sum(nil))}
}

func postRaw(r *gin.Engine, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaystackWebhook_ChargeSuccess(t *testing.T) {
	svc := &concreteMockSvc{verifyErr: apperrors.Internal("Payment verification failed.", nil)}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-7","status":"success","metadata":{"user_id":"cg-9","role":"caregiver"}}}`)

	w := postRaw(r, "/paystack/webhook", body, signed(body))

	assert.Equal(t, http.StatusOK, w.Code, "verification failures are acknowledged")
	require.Len(t, svc.verifyReqs, 1)
	assert.Equal(t, models.VerifyRequest{Reference: "ref-7", UserID: "cg-9", Role: "caregiver"}, svc.verifyReqs[0])
}

func TestPaystackWebhook_IgnoresOtherEventsAndMissingMetadata(t *testing.T) {
	svc := &concreteMockSvc{}
	r := setupRouter(svc)

	for _, body := range [][]byte{
		[]byte(`{"event":"transfer.success","data":{"reference":"ref-7"}}`),
		[]byte(`{"event":"charge.success","data":{"reference":"ref-7","metadata":""}}`),
	} {
		w := postRaw(r, "/paystack/webhook", body, signed(body))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, svc.verifyReqs)
}

func TestPaystackWebhook_BadSignature(t *testing.T) {
	svc := &concreteMockSvc{}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-7","metadata":{"user_id":"u"}}}`)

	w := postRaw(r, "/paystack/webhook", body, map[string]string{"x-paystack-signature": "deadbeef"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.verifyReqs)
}

func TestHealth(t *testing.T) {
	r := setupRouter(&concreteMockSvc{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
