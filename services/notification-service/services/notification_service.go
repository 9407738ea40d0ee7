package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
	"github.com/pheebyy/carelink/pkg/docstore"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/repository"
	"github.com/pheebyy/carelink/services/notification-service/sender"
)

const (
	DefaultSenderName = "Someone"
	maxBodyRunes      = 100
	tokenPrefixLen    = 8
)

// FanoutStore is the slice of the document store the fan-out reads and prunes.
type FanoutStore interface {
	GetConversation(ctx context.Context, id string) (*docstore.Conversation, error)
	GetUser(ctx context.Context, id string) (*docstore.User, error)
	RemoveToken(ctx context.Context, userID, token string) error
}

type NotificationService interface {
	// ProcessMessageCreated fans evt out to every participant except the sender. It only fails
	// when the conversation cannot be read; per-recipient and per-token failures land in the report.
	ProcessMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) (*models.FanoutReport, error)
	// OnMessageCreated is the trigger entry point. It never fails.
	OnMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) *models.FanoutReport
	GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error)
}

type notificationService struct {
	store   FanoutStore
	push    sender.PushSender
	repo    repository.NotificationRepository
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
}

// NewNotificationService wires the fan-out. repo and metrics may be nil.
func NewNotificationService(
	store FanoutStore,
	push sender.PushSender,
	repo repository.NotificationRepository,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		store:   store,
		push:    push,
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *notificationService) OnMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) *models.FanoutReport {
	report, err := s.ProcessMessageCreated(ctx, evt)
	if err != nil {
		s.logger.Error("message fan-out aborted", zap.Error(err))
	}
	return report
}

func (s *notificationService) ProcessMessageCreated(ctx context.Context, evt *models.MessageCreatedEvent) (*models.FanoutReport, error) {
	report := &models.FanoutReport{}
	if evt == nil {
		return report, nil
	}
	report.ConversationID = evt.ConversationID
	report.MessageID = evt.MessageID

	log := s.logger.With(
		zap.String("conversation_id", evt.ConversationID),
		zap.String("message_id", evt.MessageID),
	)

	if evt.ConversationID == "" {
		log.Warn("message event without conversation id, skipping")
		return report, nil
	}

	conv, err := s.store.GetConversation(ctx, evt.ConversationID)
	if errors.Is(err, docstore.ErrNotFound) || (err == nil && conv == nil) {
		log.Warn("conversation not found, skipping fan-out")
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("failed to read conversation %s: %w", evt.ConversationID, err)
	}

	recipients := otherParticipants(conv.Participants, evt.Message.SenderID)
	report.Recipients = len(recipients)
	if len(recipients) == 0 {
		log.Debug("no recipients for message")
		return report, nil
	}

	base := sender.PushMessage{
		Title: s.senderName(ctx, evt.Message.SenderID),
		Body:  truncateRunes(evt.Message.Text, maxBodyRunes),
		Data: map[string]string{
			"type":           models.TypeChatMessage,
			"conversationId": evt.ConversationID,
			"messageId":      evt.MessageID,
			"senderId":       evt.Message.SenderID,
		},
	}

	// Each branch writes only its own slot, so the join needs no locking.
	perRecipient := make([][]models.DeliveryOutcome, len(recipients))
	var g errgroup.Group
	for i, recipientID := range recipients {
		i, recipientID := i, recipientID
		g.Go(func() error {
			perRecipient[i] = s.notifyRecipient(ctx, log, recipientID, base)
			return nil
		})
	}
	_ = g.Wait()

	for _, outcomes := range perRecipient {
		for _, o := range outcomes {
			report.Add(o)
		}
	}

	log.Info("message fan-out complete",
		zap.Int("recipients", report.Recipients),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("pruned", report.Pruned),
		zap.Int("skipped", report.Skipped),
	)

	s.record(ctx, report)
	return report, nil
}

func (s *notificationService) notifyRecipient(ctx context.Context, log *zap.Logger, recipientID string, base sender.PushMessage) []models.DeliveryOutcome {
	user, err := s.store.GetUser(ctx, recipientID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Warn("failed to read recipient", zap.String("recipient_id", recipientID), zap.Error(err))
			return []models.DeliveryOutcome{{RecipientID: recipientID, Status: models.StatusSkipped, Error: err.Error()}}
		}
		return []models.DeliveryOutcome{{RecipientID: recipientID, Status: models.StatusSkipped}}
	}

	tokens := uniqueNonEmpty(user.FCMTokens)
	if len(tokens) == 0 {
		return []models.DeliveryOutcome{{RecipientID: recipientID, Status: models.StatusSkipped}}
	}

	outcomes := make([]models.DeliveryOutcome, len(tokens))
	var g errgroup.Group
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			outcomes[i] = s.sendToToken(ctx, log, recipientID, token, base)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *notificationService) sendToToken(ctx context.Context, log *zap.Logger, recipientID, token string, base sender.PushMessage) models.DeliveryOutcome {
	out := models.DeliveryOutcome{RecipientID: recipientID, TokenPrefix: tokenPrefix(token)}

	msg := base
	msg.Token = token
	if _, err := s.push.SendPush(ctx, msg); err != nil {
		out.Error = err.Error()
		if !sender.IsTokenInvalid(err) {
			out.Status = models.StatusFailed
			log.Warn("push delivery failed",
				zap.String("recipient_id", recipientID),
				zap.String("token_prefix", out.TokenPrefix),
				zap.Error(err),
			)
			return out
		}

		if rmErr := s.store.RemoveToken(ctx, recipientID, token); rmErr != nil {
			out.Status = models.StatusFailed
			log.Error("failed to remove invalid token",
				zap.String("recipient_id", recipientID),
				zap.String("token_prefix", out.TokenPrefix),
				zap.Error(rmErr),
			)
			return out
		}
		out.Status = models.StatusPruned
		log.Info("removed invalid token",
			zap.String("recipient_id", recipientID),
			zap.String("token_prefix", out.TokenPrefix),
		)
		return out
	}

	out.Status = models.StatusSent
	return out
}

func (s *notificationService) senderName(ctx context.Context, senderID string) string {
	if senderID == "" {
		return DefaultSenderName
	}
	u, err := s.store.GetUser(ctx, senderID)
	if err != nil || u == nil || strings.TrimSpace(u.DisplayName) == "" {
		return DefaultSenderName
	}
	return u.DisplayName
}

// record persists outcomes and ships counters. Both are best effort.
func (s *notificationService) record(ctx context.Context, report *models.FanoutReport) {
	if s.metrics != nil {
		dims := map[string]string{"Service": "notification-service", "Channel": models.ChannelPush}
		if report.Sent > 0 {
			_ = s.metrics.RecordValue(ctx, awspkg.MetricPushSent, float64(report.Sent), dims)
		}
		if report.Failed > 0 {
			_ = s.metrics.RecordValue(ctx, awspkg.MetricPushFailed, float64(report.Failed), dims)
		}
		if report.Pruned > 0 {
			_ = s.metrics.RecordValue(ctx, awspkg.MetricPushTokensPruned, float64(report.Pruned), dims)
		}
	}

	if s.repo == nil || len(report.Outcomes) == 0 {
		return
	}
	logs := make([]models.NotificationLog, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		logs = append(logs, models.NotificationLog{
			RecipientID:    o.RecipientID,
			TokenPrefix:    o.TokenPrefix,
			ConversationID: report.ConversationID,
			MessageID:      report.MessageID,
			Type:           models.TypeChatMessage,
			Channel:        models.ChannelPush,
			Status:         o.Status,
			Error:          o.Error,
		})
	}
	if err := s.repo.SaveLogs(ctx, logs); err != nil {
		s.logger.Error("failed to save notification logs",
			zap.String("conversation_id", report.ConversationID),
			zap.Error(err),
		)
	}
}

func (s *notificationService) GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error) {
	if s.repo == nil {
		return []models.NotificationLog{}, 0, nil
	}
	return s.repo.GetLogs(ctx, filter)
}

func otherParticipants(participants []string, senderID string) []string {
	out := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if p == "" || p == senderID {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func uniqueNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tokenPrefix(token string) string {
	if len(token) <= tokenPrefixLen {
		return token
	}
	return token[:tokenPrefixLen]
}
