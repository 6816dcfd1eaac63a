package repository

import (
	"fmt"

	"gorm.io/gorm"

	"communibot/internal/model"
)

type PassageRepository struct {
	db *gorm.DB
}

func NewPassageRepository(db *gorm.DB) *PassageRepository {
	return &PassageRepository{db: db}
}

func (r *PassageRepository) CreateBatch(passages []model.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	if err := r.db.Create(&passages).Error; err != nil {
		return fmt.Errorf("create passages batch failed: %w", err)
	}
	return nil
}

func (r *PassageRepository) ListByIDs(ids []uint) ([]model.Passage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var passages []model.Passage
	if err := r.db.Where("id IN ?", ids).Find(&passages).Error; err != nil {
		return nil, fmt.Errorf("list passages by ids failed: %w", err)
	}
	return passages, nil
}

// ListMeta returns scoring metadata for every passage, for the index replay
// at startup. Content is deliberately not selected.
func (r *PassageRepository) ListMeta() ([]model.Passage, error) {
	var passages []model.Passage
	if err := r.db.
		Select("id", "file_id", "group_id", "seq", "token_count").
		Find(&passages).Error; err != nil {
		return nil, fmt.Errorf("list passage meta failed: %w", err)
	}
	return passages, nil
}

func (r *PassageRepository) DeleteByFileID(fileID uint) error {
	if err := r.db.Where("file_id = ?", fileID).Delete(&model.Passage{}).Error; err != nil {
		return fmt.Errorf("delete passages by file failed: %w", err)
	}
	return nil
}
