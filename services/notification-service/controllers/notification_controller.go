package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/pheebyy/carelink/services/common/errors"
	"github.com/pheebyy/carelink/services/notification-service/middleware"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/services"
)

type NotificationController struct {
	notificationService services.NotificationService
	logger              *zap.Logger
}

func NewNotificationController(svc services.NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: svc, logger: logger}
}

const (
	maxPageSize     = 100
	defaultPage     = 1
	defaultPageSize = 20
)

func parsePaginationParams(ctx *gin.Context) (int, int) {
	page := defaultPage
	pageSize := defaultPageSize

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("page_size", "20")); err == nil && l > 0 {
		pageSize = l
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}
	return page, pageSize
}

// MessageCreated is the HTTP trigger for a newly written chat message.
func (cc *NotificationController) MessageCreated(ctx *gin.Context) {
	var evt models.MessageCreatedEvent
	if err := ctx.ShouldBindJSON(&evt); err != nil {
		_ = ctx.Error(apperrors.InvalidArgument("invalid message-created payload"))
		return
	}

	report := cc.notificationService.OnMessageCreated(ctx.Request.Context(), &evt)

	ctx.JSON(http.StatusOK, gin.H{
		"status":     "processed",
		"recipients": report.Recipients,
		"sent":       report.Sent,
		"failed":     report.Failed,
		"pruned":     report.Pruned,
		"skipped":    report.Skipped,
	})
}

func (cc *NotificationController) GetNotificationLogs(ctx *gin.Context) {
	page, pageSize := parsePaginationParams(ctx)

	filter := models.NotificationFilter{
		RecipientID:    ctx.Query("recipient_id"),
		ConversationID: ctx.Query("conversation_id"),
		Status:         ctx.Query("status"),
		Page:           page,
		PageSize:       pageSize,
	}

	logs, total, err := cc.notificationService.GetLogs(ctx.Request.Context(), filter)
	if err != nil {
		cc.logger.Error("failed to get notification logs",
			zap.Error(err),
			zap.String("requested_by", middleware.GetUserID(ctx)),
		)
		_ = ctx.Error(apperrors.Internal("internal server error", err))
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	ctx.JSON(http.StatusOK, gin.H{
		"data":        logs,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}
