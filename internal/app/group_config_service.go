package app

import (
	"strings"

	"gorm.io/gorm"

	"communibot/internal/model"
	"communibot/internal/repository"
)

// GroupConfigService manages per-group answering configuration.
type GroupConfigService struct {
	repo         *repository.GroupConfigRepository
	defaultQuota int
}

func NewGroupConfigService(db *gorm.DB, defaultQuota int) *GroupConfigService {
	if defaultQuota <= 0 {
		defaultQuota = 10
	}
	return &GroupConfigService{
		repo:         repository.NewGroupConfigRepository(db),
		defaultQuota: defaultQuota,
	}
}

// Get returns the group's config, or an unsaved default when none exists.
func (s *GroupConfigService) Get(groupID string) (*model.GroupAIConfig, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	cfg, err := s.repo.GetByGroupID(groupID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = s.defaults(groupID)
	}
	return cfg, nil
}

type UpdateConfigInput struct {
	GroupID         string
	Enabled         bool
	TriggerMode     string
	Keywords        []string
	Persona         string
	QuotaPerMinute  int
	Temperature     float64
	MaxAnswerTokens int
}

// Update upserts the group's config. An unknown trigger mode is rejected.
func (s *GroupConfigService) Update(input UpdateConfigInput) (*model.GroupAIConfig, error) {
	groupID := strings.TrimSpace(input.GroupID)
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	mode := strings.TrimSpace(input.TriggerMode)
	if mode == "" {
		mode = model.TriggerModeAll
	}
	switch mode {
	case model.TriggerModeAll, model.TriggerModeMention, model.TriggerModeKeyword:
	default:
		return nil, ErrInvalidInput
	}

	cfg, err := s.repo.GetByGroupID(groupID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = s.defaults(groupID)
	}

	cfg.Enabled = input.Enabled
	cfg.TriggerMode = mode
	cfg.SetKeywords(input.Keywords)
	cfg.Persona = strings.TrimSpace(input.Persona)
	if input.QuotaPerMinute > 0 {
		cfg.QuotaPerMinute = input.QuotaPerMinute
	}
	if input.Temperature > 0 {
		cfg.Temperature = input.Temperature
	}
	if input.MaxAnswerTokens > 0 {
		cfg.MaxAnswerTokens = input.MaxAnswerTokens
	}

	if err := s.repo.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *GroupConfigService) defaults(groupID string) *model.GroupAIConfig {
	cfg := &model.GroupAIConfig{
		GroupID:         groupID,
		Enabled:         false,
		TriggerMode:     model.TriggerModeAll,
		QuotaPerMinute:  s.defaultQuota,
		Temperature:     0.7,
		MaxAnswerTokens: 1024,
	}
	cfg.SetKeywords(nil)
	return cfg
}
