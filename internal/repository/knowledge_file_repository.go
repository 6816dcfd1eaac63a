package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"communibot/internal/model"
)

type KnowledgeFileRepository struct {
	db *gorm.DB
}

func NewKnowledgeFileRepository(db *gorm.DB) *KnowledgeFileRepository {
	return &KnowledgeFileRepository{db: db}
}

func (r *KnowledgeFileRepository) Create(file *model.KnowledgeFile) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("create knowledge file failed: %w", err)
	}
	return nil
}

func (r *KnowledgeFileRepository) GetByID(id uint) (*model.KnowledgeFile, error) {
	var file model.KnowledgeFile
	if err := r.db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get knowledge file failed: %w", err)
	}
	return &file, nil
}

func (r *KnowledgeFileRepository) ListByGroupID(groupID string) ([]model.KnowledgeFile, error) {
	var files []model.KnowledgeFile
	if err := r.db.Where("group_id = ?", groupID).Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list knowledge files failed: %w", err)
	}
	return files, nil
}

func (r *KnowledgeFileRepository) ListByIDs(ids []uint) ([]model.KnowledgeFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var files []model.KnowledgeFile
	if err := r.db.Where("id IN ?", ids).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list knowledge files by ids failed: %w", err)
	}
	return files, nil
}

// CountIndexedByGroupID reports how many files are live for retrieval.
func (r *KnowledgeFileRepository) CountIndexedByGroupID(groupID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.KnowledgeFile{}).
		Where("group_id = ? AND status = ?", groupID, model.FileStatusIndexed).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count knowledge files failed: %w", err)
	}
	return count, nil
}

func (r *KnowledgeFileRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.KnowledgeFile{}, id).Error; err != nil {
		return fmt.Errorf("delete knowledge file failed: %w", err)
	}
	return nil
}
