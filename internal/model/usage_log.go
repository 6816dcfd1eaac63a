package model

import "time"

// AIUsageLog records one completed provider call for auditing. Rows are
// written asynchronously by the usage-log worker.
type AIUsageLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	GroupID          string    `gorm:"size:64;not null;index" json:"group_id"`
	UserID           int64     `gorm:"not null;index" json:"user_id"`
	Question         string    `gorm:"size:512;not null" json:"question"`
	Answer           string    `gorm:"size:512;not null" json:"answer"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMS        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
