package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// GuestHandler 電話番号OTPによるゲストの地点依頼
type GuestHandler struct {
	guests usecase.GuestUseCase
}

func NewGuestHandler(guests usecase.GuestUseCase) *GuestHandler {
	return &GuestHandler{guests: guests}
}

// RequestOTP POST /guest/request-otp?phone_number
func (h *GuestHandler) RequestOTP(c *gin.Context) {
	phone := c.Query("phone_number")
	if phone == "" {
		badRequest(c, "phone_number parameter is required")
		return
	}
	res, err := h.guests.RequestOTP(c.Request.Context(), phone, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RequestLocation POST /guest/request-location
func (h *GuestHandler) RequestLocation(c *gin.Context) {
	var req model.LocationRequestOTP
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	res, err := h.guests.RequestLocation(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSubmission(c, res)
}
