package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"communibot/internal/ai"
	"communibot/internal/index"
	"communibot/internal/intent"
	"communibot/internal/memory"
	"communibot/internal/model"
	"communibot/internal/repository"
)

const (
	defaultPersona = "You are a friendly community assistant."

	knowledgePreamble = "\n\nBelow is your knowledge base. Answer user questions based on this content. " +
		"If the answer is not in the knowledge base, say you're not sure but try to be helpful.\n---\n"
)

// AnswerStatus classifies the outcome of handling one inbound message.
type AnswerStatus string

const (
	StatusAnswered       AnswerStatus = "answered"
	StatusNotTriggered   AnswerStatus = "not_triggered"
	StatusDisabled       AnswerStatus = "disabled"
	StatusNoKnowledge    AnswerStatus = "no_knowledge"
	StatusRateLimited    AnswerStatus = "rate_limited"
	StatusTimeout        AnswerStatus = "timeout"
	StatusPromptTooLarge AnswerStatus = "prompt_too_large"
	StatusProviderError  AnswerStatus = "provider_error"
)

// AnswerOutcome is what the delivery collaborator renders. Provider failures
// always come back as a status, never as a fault.
type AnswerOutcome struct {
	Status AnswerStatus `json:"status"`
	Answer string       `json:"answer,omitempty"`
}

// MessageInput is one inbound group message plus the router's trigger hints.
type MessageInput struct {
	GroupID      string
	UserID       int64
	Text         string
	IsMention    bool
	IsAskCommand bool
}

// CompletionClient is the provider call the orchestrator depends on.
type CompletionClient interface {
	Complete(ctx context.Context, req ai.Request, quotaPerMinute int) (*ai.Result, error)
}

// UsagePublisher enqueues usage records for asynchronous persistence.
type UsagePublisher interface {
	Publish(ctx context.Context, entry model.AIUsageLog) error
}

// AnswerOptions bound prompt assembly and the returned answer.
type AnswerOptions struct {
	TopK           int // retrieved passages per question
	ContextChars   int // total character budget for retrieved passages
	MemoryTurns    int // recent turns included in the prompt
	MaxAnswerChars int // returned answer is truncated to this many runes
}

func (o *AnswerOptions) fill() {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.ContextChars <= 0 {
		o.ContextChars = 6000
	}
	if o.MemoryTurns <= 0 {
		o.MemoryTurns = memory.DefaultCap
	}
	if o.MaxAnswerChars <= 0 {
		o.MaxAnswerChars = 4000
	}
}

// AnswerService is the answer orchestrator: it gates on group config and
// intent, assembles a grounded prompt from retrieved passages and recent
// turns, drives the provider client, and records the exchange. It performs
// no platform I/O of its own.
type AnswerService struct {
	cfgRepo     *repository.GroupConfigRepository
	fileRepo    *repository.KnowledgeFileRepository
	passageRepo *repository.PassageRepository
	idx         *index.Index
	mem         *memory.Store
	provider    CompletionClient
	publisher   UsagePublisher
	detector    intent.Detector
	opts        AnswerOptions
}

func NewAnswerService(
	db *gorm.DB,
	idx *index.Index,
	mem *memory.Store,
	provider CompletionClient,
	publisher UsagePublisher,
	detector intent.Detector,
	opts AnswerOptions,
) *AnswerService {
	opts.fill()
	if detector == nil {
		detector = intent.NewHeuristic()
	}
	return &AnswerService{
		cfgRepo:     repository.NewGroupConfigRepository(db),
		fileRepo:    repository.NewKnowledgeFileRepository(db),
		passageRepo: repository.NewPassageRepository(db),
		idx:         idx,
		mem:         mem,
		provider:    provider,
		publisher:   publisher,
		detector:    detector,
		opts:        opts,
	}
}

// HandleMessage processes one inbound group message end to end. The returned
// error is reserved for storage faults; every provider-side condition maps
// to an AnswerOutcome status.
func (s *AnswerService) HandleMessage(ctx context.Context, input MessageInput) (*AnswerOutcome, error) {
	groupID := strings.TrimSpace(input.GroupID)
	question := strings.TrimSpace(input.Text)
	if groupID == "" || input.UserID == 0 || question == "" {
		return nil, ErrInvalidInput
	}

	cfg, err := s.cfgRepo.GetByGroupID(groupID)
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.Enabled {
		return &AnswerOutcome{Status: StatusDisabled}, nil
	}

	msg := intent.Message{Text: question, IsMention: input.IsMention, IsAskCommand: input.IsAskCommand}
	if !s.detector.ShouldRespond(cfg, msg) {
		return &AnswerOutcome{Status: StatusNotTriggered}, nil
	}

	if s.idx.DocCount(groupID) == 0 {
		return &AnswerOutcome{Status: StatusNoKnowledge}, nil
	}

	knowledge, err := s.retrieveContext(groupID, question)
	if err != nil {
		return nil, err
	}

	system := strings.TrimSpace(cfg.Persona)
	if system == "" {
		system = defaultPersona
	}
	if knowledge != "" {
		system += knowledgePreamble + knowledge + "\n---"
	}

	history := make([]ai.ChatMessage, 0, s.opts.MemoryTurns)
	for _, turn := range s.mem.Recent(ctx, groupID, input.UserID, s.opts.MemoryTurns) {
		history = append(history, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	result, err := s.provider.Complete(ctx, ai.Request{
		GroupID:     groupID,
		System:      system,
		History:     history,
		Question:    question,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxAnswerTokens,
	}, cfg.QuotaPerMinute)
	if err != nil {
		return s.failureOutcome(groupID, err), nil
	}

	answer := truncateRunes(strings.TrimSpace(result.Content), s.opts.MaxAnswerChars)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	now := time.Now()
	s.mem.Record(ctx, model.ConversationTurn{
		GroupID: groupID, UserID: input.UserID,
		Role: model.RoleUser, Content: question, Timestamp: now,
	})
	s.mem.Record(ctx, model.ConversationTurn{
		GroupID: groupID, UserID: input.UserID,
		Role: model.RoleAssistant, Content: answer, Timestamp: now,
	})

	if s.publisher != nil {
		entry := model.AIUsageLog{
			GroupID:          groupID,
			UserID:           input.UserID,
			Question:         truncateRunes(question, 500),
			Answer:           truncateRunes(answer, 500),
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens,
			LatencyMS:        result.LatencyMS,
			CreatedAt:        now,
		}
		if err := s.publisher.Publish(ctx, entry); err != nil {
			log.Printf("enqueue usage log for group %s failed: %v", groupID, err)
		}
	}

	return &AnswerOutcome{Status: StatusAnswered, Answer: answer}, nil
}

// retrieveContext pulls the top-K passages for the question and formats them
// with their source file names, bounded to the context character budget.
func (s *AnswerService) retrieveContext(groupID, question string) (string, error) {
	hits := s.idx.Search(groupID, question, s.opts.TopK)
	if len(hits) == 0 {
		return "", nil
	}

	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.PassageID
	}
	passages, err := s.passageRepo.ListByIDs(ids)
	if err != nil {
		return "", err
	}
	byID := make(map[uint]model.Passage, len(passages))
	fileIDs := make(map[uint]struct{})
	for _, p := range passages {
		byID[p.ID] = p
		fileIDs[p.FileID] = struct{}{}
	}

	names := make(map[uint]string, len(fileIDs))
	idList := make([]uint, 0, len(fileIDs))
	for id := range fileIDs {
		idList = append(idList, id)
	}
	files, err := s.fileRepo.ListByIDs(idList)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		names[f.ID] = f.FileName
	}

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		p, ok := byID[h.PassageID]
		if !ok {
			continue
		}
		source := names[p.FileID]
		if source == "" {
			source = "unknown"
		}
		parts = append(parts, "[Source: "+source+"]\n"+p.Content)
	}
	return truncateRunes(strings.Join(parts, "\n\n---\n\n"), s.opts.ContextChars), nil
}

// failureOutcome maps provider-client errors onto the outcome taxonomy.
func (s *AnswerService) failureOutcome(groupID string, err error) *AnswerOutcome {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return &AnswerOutcome{Status: StatusRateLimited}
	case errors.Is(err, ai.ErrTimeout):
		return &AnswerOutcome{Status: StatusTimeout}
	case errors.Is(err, ai.ErrPromptTooLarge):
		return &AnswerOutcome{Status: StatusPromptTooLarge}
	default:
		log.Printf("provider call for group %s failed: %v", groupID, err)
		return &AnswerOutcome{Status: StatusProviderError}
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
