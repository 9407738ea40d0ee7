package models

type ChatMessage struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

// MessageCreatedEvent is emitted once per chat message written to conversations/{id}/messages.
type MessageCreatedEvent struct {
	ConversationID string      `json:"conversationId"`
	MessageID      string      `json:"messageId"`
	Message        ChatMessage `json:"message"`
}

// DeliveryOutcome is the result of one fan-out branch: a token send, or a skipped recipient.
type DeliveryOutcome struct {
	RecipientID string `json:"recipientId"`
	TokenPrefix string `json:"tokenPrefix,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type FanoutReport struct {
	ConversationID string            `json:"conversationId"`
	MessageID      string            `json:"messageId"`
	Recipients     int               `json:"recipients"`
	Sent           int               `json:"sent"`
	Failed         int               `json:"failed"`
	Pruned         int               `json:"pruned"`
	Skipped        int               `json:"skipped"`
	Outcomes       []DeliveryOutcome `json:"outcomes,omitempty"`
}

// Add records o and bumps the matching counter.
func (r *FanoutReport) Add(o DeliveryOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusSent:
		r.Sent++
	case StatusFailed:
		r.Failed++
	case StatusPruned:
		r.Pruned++
	case StatusSkipped:
		r.Skipped++
	}
}
