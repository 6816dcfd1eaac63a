package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"communibot/internal/model"
)

type GroupConfigRepository struct {
	db *gorm.DB
}

func NewGroupConfigRepository(db *gorm.DB) *GroupConfigRepository {
	return &GroupConfigRepository{db: db}
}

func (r *GroupConfigRepository) GetByGroupID(groupID string) (*model.GroupAIConfig, error) {
	var cfg model.GroupAIConfig
	if err := r.db.Where("group_id = ?", groupID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group ai config failed: %w", err)
	}
	return &cfg, nil
}

// Save inserts or updates the group's config by primary key.
func (r *GroupConfigRepository) Save(cfg *model.GroupAIConfig) error {
	if err := r.db.Save(cfg).Error; err != nil {
		return fmt.Errorf("save group ai config failed: %w", err)
	}
	return nil
}
