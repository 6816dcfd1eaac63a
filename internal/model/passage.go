package model

import "time"

// Passage is a fixed-size chunk of extracted document text, the unit of
// retrieval. Immutable once created; identity is (FileID, Seq).
type Passage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FileID     uint      `gorm:"not null;index" json:"file_id"`
	GroupID    string    `gorm:"size:64;not null;index" json:"group_id"`
	Seq        int       `gorm:"not null" json:"seq"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CharCount  int       `gorm:"not null" json:"char_count"`
	TokenCount int       `gorm:"not null" json:"token_count"`
	Keywords   string    `gorm:"size:512" json:"keywords"` // comma-joined, most frequent first
	CreatedAt  time.Time `json:"created_at"`
}
