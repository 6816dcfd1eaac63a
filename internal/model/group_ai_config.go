package model

import (
	"encoding/json"
	"time"
)

const (
	TriggerModeAll     = "all"
	TriggerModeMention = "mention"
	TriggerModeKeyword = "keyword"
)

// GroupAIConfig holds per-group answering configuration.
type GroupAIConfig struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GroupID         string    `gorm:"size:64;not null;uniqueIndex" json:"group_id"`
	Enabled         bool      `gorm:"not null;default:false" json:"enabled"`
	TriggerMode     string    `gorm:"size:16;not null;default:all" json:"trigger_mode"`
	TriggerKeywords string    `gorm:"size:1024" json:"-"` // JSON array of strings
	Persona         string    `gorm:"type:text" json:"persona"`
	QuotaPerMinute  int       `gorm:"not null;default:10" json:"quota_per_minute"`
	Temperature     float64   `gorm:"not null;default:0.7" json:"temperature"`
	MaxAnswerTokens int       `gorm:"not null;default:1024" json:"max_answer_tokens"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Keywords returns the parsed trigger keyword list; empty on parse error.
func (c *GroupAIConfig) Keywords() []string {
	if c.TriggerKeywords == "" {
		return nil
	}
	var kws []string
	_ = json.Unmarshal([]byte(c.TriggerKeywords), &kws)
	return kws
}

// SetKeywords stores the trigger keyword list as JSON.
func (c *GroupAIConfig) SetKeywords(kws []string) {
	if len(kws) == 0 {
		c.TriggerKeywords = "[]"
		return
	}
	b, _ := json.Marshal(kws)
	c.TriggerKeywords = string(b)
}
