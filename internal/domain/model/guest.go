package model

import "time"

// GuestUser 電話番号でOTP認証するゲスト
type GuestUser struct {
	ID               int64      `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	PhoneNumber      string     `json:"phone_number"`
	LastRequest      *time.Time `json:"last_request"`
	TotalOTPRequests int        `json:"total_otp_requests"`
}

// LocationRequestOTP OTP付きの地点情報リクエスト
type LocationRequestOTP struct {
	PhoneNumber string  `json:"phone_number" binding:"required"`
	OTP         string  `json:"otp" binding:"required"`
	Lat         float64 `json:"lat" binding:"min=-90,max=90"`
	Lng         float64 `json:"lng" binding:"min=-180,max=180"`
}

// OTPRequestResult OTP送信結果
type OTPRequestResult struct {
	Status            string    `json:"status"`
	ExpirationMinutes int       `json:"expiration_minutes"`
	ExpiresAt         time.Time `json:"expires_at"`
}
