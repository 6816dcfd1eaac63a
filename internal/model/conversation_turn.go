package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message in the per-(group,user) recency window.
// Turns live in an in-process ring buffer with a best-effort redis snapshot;
// durable history is the storage collaborator's concern.
type ConversationTurn struct {
	GroupID   string    `json:"group_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
