package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "communibot/internal/app"
	"communibot/internal/transport/http/response"
)

// MessageHandler receives inbound group messages from the message-routing
// collaborator and returns the answering outcome for it to render.
type MessageHandler struct {
	answerService *appsvc.AnswerService
}

func NewMessageHandler(answerService *appsvc.AnswerService) *MessageHandler {
	return &MessageHandler{answerService: answerService}
}

type inboundMessageRequest struct {
	GroupID      string `json:"group_id" binding:"required"`
	UserID       int64  `json:"user_id" binding:"required"`
	Text         string `json:"text" binding:"required"`
	IsMention    bool   `json:"is_mention"`
	IsAskCommand bool   `json:"is_ask_command"`
}

func (h *MessageHandler) Handle(c *gin.Context) {
	var req inboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	outcome, err := h.answerService.HandleMessage(c.Request.Context(), appsvc.MessageInput{
		GroupID:      req.GroupID,
		UserID:       req.UserID,
		Text:         req.Text,
		IsMention:    req.IsMention,
		IsAskCommand: req.IsAskCommand,
	})
	if err != nil {
		if errors.Is(err, appsvc.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid message")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "handle message failed")
		return
	}

	response.OK(c, outcome)
}
