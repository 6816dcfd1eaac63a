package model

import "time"

const (
	FileStatusPending = "pending"
	FileStatusIndexed = "indexed"
	FileStatusFailed  = "failed"
)

// KnowledgeFile is an operator-uploaded document owned by a single group.
// Deleting it cascades its passages and index postings.
type KnowledgeFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GroupID      string    `gorm:"size:64;not null;index" json:"group_id"`
	FileName     string    `gorm:"size:256;not null" json:"file_name"`
	Format       string    `gorm:"size:16;not null" json:"format"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	Status       string    `gorm:"size:16;not null;index" json:"status"`
	PassageCount int       `json:"passage_count"`
	TotalChars   int       `json:"total_chars"`
	UploadedBy   uint      `gorm:"index" json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
