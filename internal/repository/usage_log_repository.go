package repository

import (
	"fmt"

	"gorm.io/gorm"

	"communibot/internal/model"
)

type UsageLogRepository struct {
	db *gorm.DB
}

func NewUsageLogRepository(db *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

func (r *UsageLogRepository) Create(entry *model.AIUsageLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create usage log failed: %w", err)
	}
	return nil
}

func (r *UsageLogRepository) ListByGroupID(groupID string, limit int) ([]model.AIUsageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var entries []model.AIUsageLog
	if err := r.db.Where("group_id = ?", groupID).Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list usage logs failed: %w", err)
	}
	return entries, nil
}
