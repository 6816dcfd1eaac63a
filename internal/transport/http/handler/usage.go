package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"communibot/internal/repository"
	"communibot/internal/transport/http/response"
)

// UsageHandler exposes recent AI usage records for a group, for operator
// auditing.
type UsageHandler struct {
	usageRepo *repository.UsageLogRepository
}

func NewUsageHandler(usageRepo *repository.UsageLogRepository) *UsageHandler {
	return &UsageHandler{usageRepo: usageRepo}
}

func (h *UsageHandler) List(c *gin.Context) {
	groupID := c.Param("id")
	if groupID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid group id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.usageRepo.ListByGroupID(groupID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list usage failed")
		return
	}
	response.OK(c, entries)
}
