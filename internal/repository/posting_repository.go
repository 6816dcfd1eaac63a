package repository

import (
	"fmt"

	"gorm.io/gorm"

	"communibot/internal/model"
)

type PostingRepository struct {
	db *gorm.DB
}

func NewPostingRepository(db *gorm.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

const postingInsertBatch = 500

func (r *PostingRepository) CreateBatch(postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(&postings, postingInsertBatch).Error; err != nil {
		return fmt.Errorf("create postings batch failed: %w", err)
	}
	return nil
}

// ForEach streams all postings in primary-key batches, for the index replay
// at startup.
func (r *PostingRepository) ForEach(fn func(model.Posting) error) error {
	var batch []model.Posting
	result := r.db.FindInBatches(&batch, postingInsertBatch, func(_ *gorm.DB, _ int) error {
		for _, p := range batch {
			if err := fn(p); err != nil {
				return err
			}
		}
		return nil
	})
	if result.Error != nil {
		return fmt.Errorf("iterate postings failed: %w", result.Error)
	}
	return nil
}

func (r *PostingRepository) DeleteByFileID(fileID uint) error {
	if err := r.db.Where("file_id = ?", fileID).Delete(&model.Posting{}).Error; err != nil {
		return fmt.Errorf("delete postings by file failed: %w", err)
	}
	return nil
}
