package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"communibot/internal/index"
	"communibot/internal/ingest"
	"communibot/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.AdminUser{},
		&model.KnowledgeFile{},
		&model.Passage{},
		&model.Posting{},
		&model.GroupAIConfig{},
		&model.AIUsageLog{},
	))
	return db
}

func TestIngestCommitsFilePassagesAndPostings(t *testing.T) {
	db := openTestDB(t)
	idx := index.New()
	svc := NewIngestService(db, idx, 800)

	res, err := svc.Ingest(context.Background(), IngestInput{
		GroupID:  "grp1",
		FileName: "faq.txt",
		Format:   "txt",
		Data:     []byte("Watermelon is a fruit.\n\nIt grows on vines in warm climates."),
	})
	require.NoError(t, err)
	assert.Equal(t, model.FileStatusIndexed, res.File.Status)
	assert.Equal(t, 1, res.PassageCount, "short text stays in one passage")

	var passages []model.Passage
	require.NoError(t, db.Where("file_id = ?", res.File.ID).Find(&passages).Error)
	require.Len(t, passages, 1)
	assert.Equal(t, 0, passages[0].Seq)
	assert.Contains(t, passages[0].Content, "Watermelon")

	var postingCount int64
	require.NoError(t, db.Model(&model.Posting{}).Where("file_id = ?", res.File.ID).Count(&postingCount).Error)
	assert.Greater(t, postingCount, int64(0))

	hits := idx.Search("grp1", "watermelon fruit", 5)
	require.NotEmpty(t, hits, "ingested content must be retrievable immediately")
	assert.Equal(t, passages[0].ID, hits[0].PassageID)
}

func TestIngestSplitsLongDocuments(t *testing.T) {
	db := openTestDB(t)
	idx := index.New()
	svc := NewIngestService(db, idx, 100)

	text := strings.TrimSpace(strings.Repeat("Renewals are processed on the first business day. ", 10))
	res, err := svc.Ingest(context.Background(), IngestInput{
		GroupID:  "grp1",
		FileName: "policy.md",
		Format:   "md",
		Data:     []byte(text),
	})
	require.NoError(t, err)
	assert.Greater(t, res.PassageCount, 1)
	assert.Equal(t, res.PassageCount, idx.DocCount("grp1"))

	var passages []model.Passage
	require.NoError(t, db.Where("file_id = ?", res.File.ID).Order("seq").Find(&passages).Error)
	for i, p := range passages {
		assert.Equal(t, i, p.Seq, "sequence numbers must be dense and ordered")
	}
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	db := openTestDB(t)
	svc := NewIngestService(db, index.New(), 800)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, IngestInput{GroupID: "", FileName: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Ingest(ctx, IngestInput{GroupID: "g", FileName: "", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Ingest(ctx, IngestInput{GroupID: "g", FileName: "a.txt", Data: nil})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestUnsupportedFormatRecordsFailedFile(t *testing.T) {
	db := openTestDB(t)
	idx := index.New()
	svc := NewIngestService(db, idx, 800)

	_, err := svc.Ingest(context.Background(), IngestInput{
		GroupID:  "grp1",
		FileName: "report.xlsx",
		Format:   "xlsx",
		Data:     []byte("binary stuff"),
	})
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	var files []model.KnowledgeFile
	require.NoError(t, db.Find(&files).Error)
	require.Len(t, files, 1)
	assert.Equal(t, model.FileStatusFailed, files[0].Status)
	assert.Zero(t, files[0].PassageCount)

	var passageCount int64
	require.NoError(t, db.Model(&model.Passage{}).Count(&passageCount).Error)
	assert.Zero(t, passageCount, "failed ingest must leave zero passages")
	assert.Zero(t, idx.DocCount("grp1"))
}

func TestIngestCorruptFileRecordsFailedFile(t *testing.T) {
	db := openTestDB(t)
	svc := NewIngestService(db, index.New(), 800)

	_, err := svc.Ingest(context.Background(), IngestInput{
		GroupID:  "grp1",
		FileName: "broken.pdf",
		Format:   "pdf",
		Data:     []byte("not really a pdf"),
	})
	assert.ErrorIs(t, err, ingest.ErrExtraction)

	var files []model.KnowledgeFile
	require.NoError(t, db.Find(&files).Error)
	require.Len(t, files, 1)
	assert.Equal(t, model.FileStatusFailed, files[0].Status)
}

func TestDeleteFileRemovesEverything(t *testing.T) {
	db := openTestDB(t)
	idx := index.New()
	svc := NewIngestService(db, idx, 800)
	ctx := context.Background()

	keep, err := svc.Ingest(ctx, IngestInput{
		GroupID: "grp1", FileName: "keep.txt", Format: "txt",
		Data: []byte("Parking passes renew quarterly."),
	})
	require.NoError(t, err)
	gone, err := svc.Ingest(ctx, IngestInput{
		GroupID: "grp1", FileName: "gone.txt", Format: "txt",
		Data: []byte("Zebra enclosures close at dusk."),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, gone.File.ID))

	var fileCount, passageCount, postingCount int64
	require.NoError(t, db.Model(&model.KnowledgeFile{}).Where("id = ?", gone.File.ID).Count(&fileCount).Error)
	require.NoError(t, db.Model(&model.Passage{}).Where("file_id = ?", gone.File.ID).Count(&passageCount).Error)
	require.NoError(t, db.Model(&model.Posting{}).Where("file_id = ?", gone.File.ID).Count(&postingCount).Error)
	assert.Zero(t, fileCount)
	assert.Zero(t, passageCount)
	assert.Zero(t, postingCount)

	assert.Empty(t, idx.Search("grp1", "zebra", 5), "deleted content must not be retrievable")
	hits := idx.Search("grp1", "parking", 5)
	require.NotEmpty(t, hits, "sibling file must survive the delete")

	var kept model.Passage
	require.NoError(t, db.Where("file_id = ?", keep.File.ID).First(&kept).Error)
	assert.Equal(t, kept.ID, hits[0].PassageID)
}

func TestDeleteFileNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewIngestService(db, index.New(), 800)
	assert.ErrorIs(t, svc.DeleteFile(context.Background(), 9999), ErrFileNotFound)
}

func TestRebuildIndexRestoresRetrieval(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedIdx := index.New()
	seeder := NewIngestService(db, seedIdx, 800)
	res, err := seeder.Ingest(ctx, IngestInput{
		GroupID: "grp1", FileName: "faq.txt", Format: "txt",
		Data: []byte("Watermelon is a fruit."),
	})
	require.NoError(t, err)

	// Fresh index simulating a restart.
	idx := index.New()
	svc := NewIngestService(db, idx, 800)
	require.NoError(t, svc.RebuildIndex())

	assert.Equal(t, 1, idx.DocCount("grp1"))
	hits := idx.Search("grp1", "watermelon", 5)
	require.NotEmpty(t, hits)

	var passage model.Passage
	require.NoError(t, db.Where("file_id = ?", res.File.ID).First(&passage).Error)
	assert.Equal(t, passage.ID, hits[0].PassageID)
}

func TestIngestScopesGroupsIndependently(t *testing.T) {
	db := openTestDB(t)
	idx := index.New()
	svc := NewIngestService(db, idx, 800)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, IngestInput{
		GroupID: "grp1", FileName: "a.txt", Format: "txt",
		Data: []byte("Private launch codes live here."),
	})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, IngestInput{
		GroupID: "grp2", FileName: "b.txt", Format: "txt",
		Data: []byte("Public meeting notes live here."),
	})
	require.NoError(t, err)

	assert.Empty(t, idx.Search("grp2", "launch codes", 5), "grp1 content must not leak into grp2")
	assert.NotEmpty(t, idx.Search("grp1", "launch codes", 5))
}

func TestListFiles(t *testing.T) {
	db := openTestDB(t)
	svc := NewIngestService(db, index.New(), 800)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, IngestInput{
		GroupID: "grp1", FileName: "a.txt", Format: "txt", Data: []byte("alpha content"),
	})
	require.NoError(t, err)

	files, err := svc.ListFiles("grp1")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = svc.ListFiles("  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
