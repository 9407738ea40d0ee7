package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestSaveLogs_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	logs := []models.NotificationLog{
		{RecipientID: "u-2", TokenPrefix: "abc", ConversationID: "c-1", MessageID: "m-1", Type: models.TypeChatMessage, Channel: models.ChannelPush, Status: models.StatusSent},
		{RecipientID: "u-3", TokenPrefix: "def", ConversationID: "c-1", MessageID: "m-1", Type: models.TypeChatMessage, Channel: models.ChannelPush, Status: models.StatusPruned},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notification_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	err := repo.SaveLogs(context.Background(), logs)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLogs_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	assert.NoError(t, repo.SaveLogs(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLogs_DBError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notification_logs"`)).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	err := repo.SaveLogs(context.Background(), []models.NotificationLog{{RecipientID: "u-2"}})
	assert.Error(t, err)
}

func TestGetLogs_FilterAndPaginate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "notification_logs" WHERE recipient_id = $1 AND status = $2`)).
		WithArgs("u-2", models.StatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "recipient_id", "token_prefix", "conversation_id", "message_id", "type", "channel", "status", "error", "created_at"}).
		AddRow(7, "u-2", "abc", "c-1", "m-1", models.TypeChatMessage, models.ChannelPush, models.StatusFailed, "unavailable", now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notification_logs" WHERE recipient_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs("u-2", models.StatusFailed, 2, 2).
		WillReturnRows(rows)

	logs, total, err := repo.GetLogs(context.Background(), models.NotificationFilter{
		RecipientID: "u-2", Status: models.StatusFailed, Page: 2, PageSize: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "unavailable", logs[0].Error)
}
