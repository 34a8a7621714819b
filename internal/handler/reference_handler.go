package handler

import (
	"context"
	"net/http"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler 電話番号コード・アクティビティログ・逆ジオコーディング
type ReferenceHandler struct {
	reference usecase.ReferenceUseCase
}

func NewReferenceHandler(reference usecase.ReferenceUseCase) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

// PhoneCodes GET /phone-codes/all
func (h *ReferenceHandler) PhoneCodes(c *gin.Context) {
	codes, err := h.reference.PhoneCodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if codes == nil {
		codes = []model.PhoneCode{}
	}
	c.JSON(http.StatusOK, codes)
}

// ActivityLogs GET /activity-logs/organization/:organization_id
func (h *ReferenceHandler) ActivityLogs(c *gin.Context) {
	id, ok := paramInt64(c, "organization_id")
	if !ok {
		return
	}
	page, ok := queryIntDefault(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryIntDefault(c, "limit", 20)
	if !ok {
		return
	}
	logs, err := h.reference.ActivityLogs(c.Request.Context(), currentUser(c), id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// Reverse GET /geocoding/reverse?lat&lng
func (h *ReferenceHandler) Reverse(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}
	addr, err := h.reference.ReverseGeocode(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

// HealthChecker 依存サービスの死活確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health GET /api/health
func Health(db HealthChecker, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": service,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": service})
	}
}
