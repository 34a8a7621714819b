package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ChangeLogHandler struct {
	changelogs usecase.ChangeLogUseCase
}

func NewChangeLogHandler(changelogs usecase.ChangeLogUseCase) *ChangeLogHandler {
	return &ChangeLogHandler{changelogs: changelogs}
}

// ByLocation GET /changelogs/location/:location_id
func (h *ChangeLogHandler) ByLocation(c *gin.Context) {
	id, ok := paramInt64(c, "location_id")
	if !ok {
		return
	}
	list, err := h.changelogs.ListByLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []model.ChangeLog{}
	}
	c.JSON(http.StatusOK, list)
}

// ToggleVisibility PUT /changelogs/visibility/:changelog_id
func (h *ChangeLogHandler) ToggleVisibility(c *gin.Context) {
	id, ok := paramInt64(c, "changelog_id")
	if !ok {
		return
	}
	cl, err := h.changelogs.ToggleVisibility(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}
