package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler 支援団体の管理
type OrganizationHandler struct {
	orgs usecase.OrganizationUseCase
}

func NewOrganizationHandler(orgs usecase.OrganizationUseCase) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// Create POST /organizations/create
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req model.OrganizationBase
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgs.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// AddWithLeaders POST /organizations/add - 組織作成とリーダー招待。招待トークンを返す
func (h *OrganizationHandler) AddWithLeaders(c *gin.Context) {
	var req model.OrganizationLeaderInvite
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.orgs.AddWithLeaders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// List GET /organizations/all?page&limit
func (h *OrganizationHandler) List(c *gin.Context) {
	page, ok := queryIntDefault(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryIntDefault(c, "limit", 20)
	if !ok {
		return
	}
	orgs, err := h.orgs.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	c.JSON(http.StatusOK, orgs)
}

// Search GET /organizations/search?query
func (h *OrganizationHandler) Search(c *gin.Context) {
	query, ok := requiredQuery(c, "query")
	if !ok {
		return
	}
	orgs, err := h.orgs.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	c.JSON(http.StatusOK, orgs)
}

// Get GET /organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	org, err := h.orgs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// Edit PUT /organizations/:id/edit
func (h *OrganizationHandler) Edit(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req model.OrganizationBase
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgs.Edit(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// AddMembers PUT /organizations/:id/invite
func (h *OrganizationHandler) AddMembers(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req model.OrganizationUserInvite
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgs.AddMembers(c.Request.Context(), id, req.Emails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// RemoveMember PUT /organizations/:id/remove?user_id
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	userID, ok := queryInt64(c, "user_id")
	if !ok {
		return
	}
	org, err := h.orgs.RemoveMember(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// ToggleActivity PUT /organizations/toggle-activity/:id
func (h *OrganizationHandler) ToggleActivity(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	org, err := h.orgs.ToggleActivity(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// Delete DELETE /organizations/:id
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.orgs.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
