package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	appsvc "communibot/internal/app"
	"communibot/internal/ingest"
	"communibot/internal/transport/http/middleware"
	"communibot/internal/transport/http/response"
)

type KnowledgeHandler struct {
	ingestService *appsvc.IngestService
}

func NewKnowledgeHandler(ingestService *appsvc.IngestService) *KnowledgeHandler {
	return &KnowledgeHandler{ingestService: ingestService}
}

// Upload ingests one multipart file for a group. The declared format is the
// file extension unless a "format" field overrides it.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	groupID := c.PostForm("group_id")
	if groupID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "group_id is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	if fileHeader.Size > ingest.MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file exceeds the 10MB limit")
		return
	}

	format := c.PostForm("format")
	if format == "" {
		format = filepath.Ext(fileHeader.Filename)
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "cannot read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, ingest.MaxFileSize+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "cannot read uploaded file")
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), appsvc.IngestInput{
		GroupID:    groupID,
		FileName:   fileHeader.Filename,
		Format:     format,
		Data:       data,
		UploadedBy: c.GetUint(middleware.ContextUserIDKey),
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedFormat, "unsupported file format")
		case errors.Is(err, ingest.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file exceeds the 10MB limit")
		case errors.Is(err, ingest.ErrExtraction):
			response.Error(c, http.StatusUnprocessableEntity, response.CodeExtractionFailed, err.Error())
		case errors.Is(err, appsvc.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid upload")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "group_id is required")
		return
	}

	files, err := h.ingestService.ListFiles(groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list files failed")
		return
	}
	indexed, err := h.ingestService.CountIndexedFiles(groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list files failed")
		return
	}
	response.OK(c, gin.H{"files": files, "indexed_count": indexed})
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid file id")
		return
	}

	if err := h.ingestService.DeleteFile(c.Request.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, appsvc.ErrFileNotFound):
			response.Error(c, http.StatusNotFound, response.CodeFileNotFound, "file not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete file failed")
		}
		return
	}
	response.OK(c, nil)
}
