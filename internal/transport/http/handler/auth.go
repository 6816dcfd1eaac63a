package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "communibot/internal/app"
	"communibot/internal/transport/http/middleware"
	"communibot/internal/transport/http/response"
)

type AuthHandler struct {
	authService *appsvc.AuthService
}

func NewAuthHandler(authService *appsvc.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Register(appsvc.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, appsvc.ErrUsernameExists):
			response.Error(c, http.StatusConflict, response.CodeUsernameExists, "username already exists")
		case errors.Is(err, appsvc.ErrEmailExists):
			response.Error(c, http.StatusConflict, response.CodeEmailExists, "email already exists")
		case errors.Is(err, appsvc.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid username, email or password")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "register failed")
		}
		return
	}

	response.OK(c, authResponse{Token: result.Token, User: result.User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(appsvc.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, appsvc.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "invalid username or password")
		case errors.Is(err, appsvc.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "username and password are required")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		}
		return
	}

	response.OK(c, authResponse{Token: result.Token, User: result.User})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserIDKey)
	user, err := h.authService.GetUserByID(userID)
	if err != nil || user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found")
		return
	}
	response.OK(c, user)
}
