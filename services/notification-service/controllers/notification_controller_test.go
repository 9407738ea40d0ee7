package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/pheebyy/carelink/services/common/errors"
	"github.com/pheebyy/carelink/services/notification-service/controllers"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/routes"
)

type mockService struct {
	events  []models.MessageCreatedEvent
	report  *models.FanoutReport
	logs    []models.NotificationLog
	total   int64
	logsErr error
	filter  models.NotificationFilter
}

func (m *mockService) ProcessMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) (*models.FanoutReport, error) {
	return m.OnMessageCreated(ctx, evt), nil
}

func (m *mockService) OnMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) *models.FanoutReport {
	m.events = append(m.events, *evt)
	if m.report != nil {
		return m.report
	}
	return &models.FanoutReport{}
}

func (m *mockService) GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error) {
	m.filter = filter
	return m.logs, m.total, m.logsErr
}

const triggerSecret = "s3cret"

func setupRouter(svc *mockService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	routes.RegisterRoutes(r, controllers.NewNotificationController(svc, zap.NewNop()), nil, triggerSecret)
	return r
}

func do(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var triggerHeaders = map[string]string{"X-Trigger-Secret": triggerSecret}

func TestMessageCreated_Success(t *testing.T) {
	svc := &mockService{report: &models.FanoutReport{Recipients: 2, Sent: 2, Pruned: 1, Skipped: 1}}
	r := setupRouter(svc)

	body := []byte(`{"conversationId":"conv-1","messageId":"msg-1","message":{"senderId":"A","text":"hi"}}`)
	w := do(r, http.MethodPost, "/events/message-created", body, triggerHeaders)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp["status"])
	assert.Equal(t, float64(2), resp["sent"])
	assert.Equal(t, float64(1), resp["pruned"])
	require.Len(t, svc.events, 1)
	assert.Equal(t, "conv-1", svc.events[0].ConversationID)
}

func TestMessageCreated_BadJSON(t *testing.T) {
	svc := &mockService{}
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/events/message-created", []byte(`{not json`), triggerHeaders)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid-argument")
	assert.Empty(t, svc.events)
}

func TestMessageCreated_WrongSecret(t *testing.T) {
	svc := &mockService{}
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/events/message-created", []byte(`{}`), map[string]string{"X-Trigger-Secret": "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.events)
}

func TestGetNotificationLogs_Admin(t *testing.T) {
	svc := &mockService{logs: []models.NotificationLog{{ID: 1, RecipientID: "C", Status: models.StatusSent}}, total: 41}
	r := setupRouter(svc)

	w := do(r, http.MethodGet, "/notifications/log?recipient_id=C&page=2&page_size=500", nil,
		map[string]string{"X-User-ID": "admin-1", "X-User-Role": "admin"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(41), resp["total"])
	assert.Equal(t, float64(100), resp["page_size"])
	assert.Equal(t, float64(1), resp["total_pages"])
	assert.Equal(t, "C", svc.filter.RecipientID)
	assert.Equal(t, 2, svc.filter.Page)
}

func TestGetNotificationLogs_Forbidden(t *testing.T) {
	r := setupRouter(&mockService{})

	w := do(r, http.MethodGet, "/notifications/log", nil, map[string]string{"X-User-ID": "u-1", "X-User-Role": "client"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/notifications/log", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetNotificationLogs_Error(t *testing.T) {
	r := setupRouter(&mockService{logsErr: errors.New("db down")})

	w := do(r, http.MethodGet, "/notifications/log", nil, map[string]string{"X-User-ID": "admin-1", "X-User-Role": "admin"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}
