package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// OauthHandler ロールとスコープの管理
type OauthHandler struct {
	oauth usecase.OauthUseCase
}

func NewOauthHandler(oauth usecase.OauthUseCase) *OauthHandler {
	return &OauthHandler{oauth: oauth}
}

// CreateRole POST /oauth/roles/create
func (h *OauthHandler) CreateRole(c *gin.Context) {
	var req model.OauthRoleCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	role, err := h.oauth.CreateRole(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// Roles GET /oauth/roles/all
func (h *OauthHandler) Roles(c *gin.Context) {
	roles, err := h.oauth.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if roles == nil {
		roles = []model.OauthRole{}
	}
	c.JSON(http.StatusOK, roles)
}

// PatchRole PUT /oauth/roles/patch?role_id
func (h *OauthHandler) PatchRole(c *gin.Context) {
	id, ok := queryInt64(c, "role_id")
	if !ok {
		return
	}
	var req model.OauthRoleCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	role, err := h.oauth.PatchRole(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// Scopes GET /oauth/scopes/all
func (h *OauthHandler) Scopes(c *gin.Context) {
	scopes, err := h.oauth.ListScopes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if scopes == nil {
		scopes = []model.OauthScope{}
	}
	c.JSON(http.StatusOK, scopes)
}
