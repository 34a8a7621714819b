package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// UserHandler ユーザー登録・招待・プロフィール
type UserHandler struct {
	users usecase.UserUseCase
}

func NewUserHandler(users usecase.UserUseCase) *UserHandler {
	return &UserHandler{users: users}
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return false
	}
	return true
}

func requiredQuery(c *gin.Context, key string) (string, bool) {
	v := c.Query(key)
	if v == "" {
		badRequest(c, key+" parameter is required")
		return "", false
	}
	return v, true
}

// Register POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.UserCreate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Invite POST /users/invite
func (h *UserHandler) Invite(c *gin.Context) {
	var req model.UserInvite
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Invite(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyInvite GET /users/verify?access_token
func (h *UserHandler) VerifyInvite(c *gin.Context) {
	token, ok := requiredQuery(c, "access_token")
	if !ok {
		return
	}
	user, err := h.users.VerifyInvite(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ConfirmRegistration POST /users/confirm-registration?access_token
func (h *UserHandler) ConfirmRegistration(c *gin.Context) {
	token, ok := requiredQuery(c, "access_token")
	if !ok {
		return
	}
	var req model.UserCreate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.ConfirmRegistration(c.Request.Context(), token, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// UpdateInfo PUT /users/info
func (h *UserHandler) UpdateInfo(c *gin.Context) {
	var req model.UserBase
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateInfo(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword PUT /users/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req model.UserPasswordUpdate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.ChangePassword(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RequestPasswordReset PUT /users/password-reset?user_email
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	email, ok := requiredQuery(c, "user_email")
	if !ok {
		return
	}
	token, err := h.users.RequestPasswordReset(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// ConfirmPasswordReset PUT /users/confirm-reset
func (h *UserHandler) ConfirmPasswordReset(c *gin.Context) {
	var req model.UserPasswordRenewal
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.ConfirmPasswordReset(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleActivity PUT /users/toggle-activity?user_id
func (h *UserHandler) ToggleActivity(c *gin.Context) {
	id, ok := queryInt64(c, "user_id")
	if !ok {
		return
	}
	user, err := h.users.ToggleActivity(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangeRole PUT /users/change-role?user_id&role_id
func (h *UserHandler) ChangeRole(c *gin.Context) {
	userID, ok := queryInt64(c, "user_id")
	if !ok {
		return
	}
	roleID, ok := queryInt64(c, "role_id")
	if !ok {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), currentUser(c), userID, roleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe DELETE /users/delete-me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.users.DeleteMe(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
