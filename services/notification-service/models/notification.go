package models

import "time"

const (
	ChannelPush = "push"

	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusPruned  = "pruned"
	StatusSkipped = "skipped"

	TypeChatMessage = "chat_message"
)

// NotificationLog is one delivery outcome of a fan-out, persisted when Postgres is configured.
type NotificationLog struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipientID    string    `json:"recipient_id" gorm:"index"`
	TokenPrefix    string    `json:"token_prefix"`
	ConversationID string    `json:"conversation_id" gorm:"index"`
	MessageID      string    `json:"message_id"`
	Type           string    `json:"type"`
	Channel        string    `json:"channel"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type NotificationFilter struct {
	RecipientID    string
	ConversationID string
	Status         string
	Page           int
	PageSize       int
}
