package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// AuthHandler ログインとセッション管理
type AuthHandler struct {
	auth usecase.AuthUseCase
}

func NewAuthHandler(auth usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login POST /auth/login/token - OAuth2パスワードフローのフォーム
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		badRequest(c, "username and password are required")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), &usecase.LoginRequest{
		Email:     username,
		Password:  password,
		UserAgent: c.Request.UserAgent(),
		UserIP:    c.ClientIP(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Sessions GET /auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	sessions, err := h.auth.Sessions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// RevokeSession DELETE /auth/sessions/:session_id
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	id, ok := paramInt64(c, "session_id")
	if !ok {
		return
	}
	if err := h.auth.RevokeSession(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
