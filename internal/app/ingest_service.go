package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"communibot/internal/index"
	"communibot/internal/ingest"
	"communibot/internal/model"
	"communibot/internal/repository"
)

var ErrFileNotFound = errors.New("knowledge file not found")

// IngestService turns uploads into indexed passages. A file is committed
// all-or-nothing: either the file row, its passages and its postings land in
// one transaction, or a failed file row with zero passages is recorded.
type IngestService struct {
	db           *gorm.DB
	fileRepo     *repository.KnowledgeFileRepository
	idx          *index.Index
	passageChars int
}

func NewIngestService(db *gorm.DB, idx *index.Index, passageChars int) *IngestService {
	if passageChars <= 0 {
		passageChars = ingest.DefaultPassageChars
	}
	return &IngestService{
		db:           db,
		fileRepo:     repository.NewKnowledgeFileRepository(db),
		idx:          idx,
		passageChars: passageChars,
	}
}

type IngestInput struct {
	GroupID    string
	FileName   string
	Format     string
	Data       []byte
	UploadedBy uint
}

type IngestResult struct {
	File         model.KnowledgeFile `json:"file"`
	PassageCount int                 `json:"passage_count"`
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	groupID := strings.TrimSpace(input.GroupID)
	fileName := strings.TrimSpace(input.FileName)
	if groupID == "" || fileName == "" || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if len(input.Data) > ingest.MaxFileSize {
		return nil, ingest.ErrFileTooLarge
	}

	format := ingest.NormalizeFormat(input.Format)
	file := model.KnowledgeFile{
		GroupID:    groupID,
		FileName:   fileName,
		Format:     format,
		SizeBytes:  int64(len(input.Data)),
		Status:     model.FileStatusPending,
		UploadedBy: input.UploadedBy,
	}

	text, err := ingest.Extract(input.Data, format)
	if err != nil {
		s.recordFailure(&file)
		return nil, err
	}

	texts := ingest.SplitPassages(text, s.passageChars)
	if len(texts) == 0 {
		s.recordFailure(&file)
		return nil, fmt.Errorf("%w: no extractable text", ingest.ErrExtraction)
	}

	passages := make([]model.Passage, len(texts))
	termFreqs := make([]map[string]int, len(texts))
	totalChars := 0
	for i, t := range texts {
		freqs := index.TermCounts(t)
		tokenCount := 0
		for _, tf := range freqs {
			tokenCount += tf
		}
		charCount := len([]rune(t))
		totalChars += charCount
		termFreqs[i] = freqs
		passages[i] = model.Passage{
			GroupID:    groupID,
			Seq:        i,
			Content:    t,
			CharCount:  charCount,
			TokenCount: tokenCount,
			Keywords:   strings.Join(ingest.ExtractKeywords(t, 0), ","),
		}
	}

	file.Status = model.FileStatusIndexed
	file.PassageCount = len(passages)
	file.TotalChars = totalChars

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewKnowledgeFileRepository(tx).Create(&file); err != nil {
			return err
		}
		for i := range passages {
			passages[i].FileID = file.ID
		}
		if err := repository.NewPassageRepository(tx).CreateBatch(passages); err != nil {
			return err
		}
		var postings []model.Posting
		for i := range passages {
			for term, tf := range termFreqs[i] {
				postings = append(postings, model.Posting{
					GroupID:   groupID,
					FileID:    file.ID,
					PassageID: passages[i].ID,
					Term:      term,
					TermFreq:  tf,
				})
			}
		}
		return repository.NewPostingRepository(tx).CreateBatch(postings)
	})
	if err != nil {
		return nil, fmt.Errorf("commit ingest failed: %w", err)
	}

	for i := range passages {
		s.idx.Add(groupID, index.Doc{
			PassageID: passages[i].ID,
			FileID:    file.ID,
			Seq:       passages[i].Seq,
			Length:    passages[i].TokenCount,
		}, termFreqs[i])
	}

	return &IngestResult{File: file, PassageCount: len(passages)}, nil
}

// recordFailure keeps a failed file row visible to admins. Best effort; a
// failed ingest never leaves passages or postings behind.
func (s *IngestService) recordFailure(file *model.KnowledgeFile) {
	file.Status = model.FileStatusFailed
	file.PassageCount = 0
	file.TotalChars = 0
	if err := s.fileRepo.Create(file); err != nil {
		log.Printf("record failed ingest for %q: %v", file.FileName, err)
	}
}

func (s *IngestService) ListFiles(groupID string) ([]model.KnowledgeFile, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, ErrInvalidInput
	}
	return s.fileRepo.ListByGroupID(groupID)
}

// CountIndexedFiles reports how many of the group's files are live for
// retrieval.
func (s *IngestService) CountIndexedFiles(groupID string) (int64, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, ErrInvalidInput
	}
	return s.fileRepo.CountIndexedByGroupID(groupID)
}

// DeleteFile removes the file, its passages and its postings in one
// transaction, then prunes the in-memory index.
func (s *IngestService) DeleteFile(ctx context.Context, fileID uint) error {
	if fileID == 0 {
		return ErrInvalidInput
	}
	file, err := s.fileRepo.GetByID(fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return ErrFileNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPostingRepository(tx).DeleteByFileID(fileID); err != nil {
			return err
		}
		if err := repository.NewPassageRepository(tx).DeleteByFileID(fileID); err != nil {
			return err
		}
		return repository.NewKnowledgeFileRepository(tx).Delete(fileID)
	})
	if err != nil {
		return fmt.Errorf("commit file delete failed: %w", err)
	}

	s.idx.RemoveFile(file.GroupID, fileID)
	return nil
}

// RebuildIndex replays persisted passages and postings into the in-memory
// index. Called once at startup.
func (s *IngestService) RebuildIndex() error {
	metas, err := repository.NewPassageRepository(s.db).ListMeta()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return nil
	}

	freqs := make(map[uint]map[string]int, len(metas))
	err = repository.NewPostingRepository(s.db).ForEach(func(p model.Posting) error {
		m, ok := freqs[p.PassageID]
		if !ok {
			m = make(map[string]int)
			freqs[p.PassageID] = m
		}
		m[p.Term] = p.TermFreq
		return nil
	})
	if err != nil {
		return err
	}

	for _, meta := range metas {
		s.idx.Add(meta.GroupID, index.Doc{
			PassageID: meta.ID,
			FileID:    meta.FileID,
			Seq:       meta.Seq,
			Length:    meta.TokenCount,
		}, freqs[meta.ID])
	}
	log.Printf("index rebuilt: %d passages", len(metas))
	return nil
}
