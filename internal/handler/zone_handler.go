package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// ZoneHandler 制限区域のHTTPハンドラー
type ZoneHandler struct {
	zones usecase.ZoneUseCase
}

func NewZoneHandler(zones usecase.ZoneUseCase) *ZoneHandler {
	return &ZoneHandler{zones: zones}
}

// Restrict POST /zones/restrict - 区域名から制限区域を登録
func (h *ZoneHandler) Restrict(c *gin.Context) {
	var req model.ZoneCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	zone, err := h.zones.Restrict(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, zone)
}

// Allow DELETE /zones/allow?zone_id
func (h *ZoneHandler) Allow(c *gin.Context) {
	id, ok := queryInt64(c, "zone_id")
	if !ok {
		return
	}
	if err := h.zones.Allow(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List GET /zones/zones
func (h *ZoneHandler) List(c *gin.Context) {
	zones, err := h.zones.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	c.JSON(http.StatusOK, zones)
}
