package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "communibot/internal/app"
	"communibot/internal/transport/http/response"
)

type GroupConfigHandler struct {
	configService *appsvc.GroupConfigService
}

func NewGroupConfigHandler(configService *appsvc.GroupConfigService) *GroupConfigHandler {
	return &GroupConfigHandler{configService: configService}
}

func (h *GroupConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, appsvc.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid group id")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get config failed")
		return
	}
	response.OK(c, gin.H{"config": cfg, "keywords": cfg.Keywords()})
}

type updateConfigRequest struct {
	Enabled         bool     `json:"enabled"`
	TriggerMode     string   `json:"trigger_mode"`
	Keywords        []string `json:"keywords"`
	Persona         string   `json:"persona"`
	QuotaPerMinute  int      `json:"quota_per_minute"`
	Temperature     float64  `json:"temperature"`
	MaxAnswerTokens int      `json:"max_answer_tokens"`
}

func (h *GroupConfigHandler) Update(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	cfg, err := h.configService.Update(appsvc.UpdateConfigInput{
		GroupID:         c.Param("id"),
		Enabled:         req.Enabled,
		TriggerMode:     req.TriggerMode,
		Keywords:        req.Keywords,
		Persona:         req.Persona,
		QuotaPerMinute:  req.QuotaPerMinute,
		Temperature:     req.Temperature,
		MaxAnswerTokens: req.MaxAnswerTokens,
	})
	if err != nil {
		if errors.Is(err, appsvc.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid config")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update config failed")
		return
	}
	response.OK(c, cfg)
}
