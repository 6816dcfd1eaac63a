package model

// Posting is one inverted-index entry: a term occurring TermFreq times in a
// passage. Rows are the durable image of the in-memory index, written in the
// same transaction as their passages and reloaded at startup.
type Posting struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	GroupID   string `gorm:"size:64;not null;index" json:"group_id"`
	FileID    uint   `gorm:"not null;index" json:"file_id"`
	PassageID uint   `gorm:"not null;index" json:"passage_id"`
	Term      string `gorm:"size:128;not null;index" json:"term"`
	TermFreq  int    `gorm:"not null" json:"term_freq"`
}
