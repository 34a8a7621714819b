package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const (
	otpDigits = 6
	// otpVerifyAttempts 1つのコードに対して許可する照合回数
	otpVerifyAttempts = 5
)

type GuestUseCase interface {
	// RequestOTP 電話番号にOTPを送る。接続元IPごとに1時間あたりの回数を制限する
	RequestOTP(ctx context.Context, phoneNumber, clientIP string) (*model.OTPRequestResult, error)
	// RequestLocation OTPを検証してから地点のレビューを依頼する
	RequestLocation(ctx context.Context, req *model.LocationRequestOTP) (*model.SubmissionResult, error)
}

type guestUseCaseImpl struct {
	guests    repository.GuestRepository
	otp       repository.OTPStore
	limiter   repository.RateLimiter
	sms       repository.SMSSender
	locations LocationUseCase
	enabled   bool
	expire    time.Duration
	hourLimit int
	logger    *zap.Logger
	now       func() time.Time
}

// GuestDeps GuestUseCaseの依存関係
type GuestDeps struct {
	Guests    repository.GuestRepository
	OTP       repository.OTPStore
	Limiter   repository.RateLimiter
	SMS       repository.SMSSender
	Locations LocationUseCase
	// Enabled falseの場合はOTPの送信・検証を受け付けない
	Enabled   bool
	Expire    time.Duration
	HourLimit int
	Logger    *zap.Logger
}

func NewGuestUseCase(d GuestDeps) GuestUseCase {
	return &guestUseCaseImpl{
		guests:    d.Guests,
		otp:       d.OTP,
		limiter:   d.Limiter,
		sms:       d.SMS,
		locations: d.Locations,
		enabled:   d.Enabled,
		expire:    d.Expire,
		hourLimit: d.HourLimit,
		logger:    d.Logger,
		now:       time.Now,
	}
}

func (u *guestUseCaseImpl) getOrCreate(ctx context.Context, phone string) (*model.GuestUser, error) {
	guest, err := u.guests.GetByPhone(ctx, phone)
	if err == nil {
		return guest, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	guest = &model.GuestUser{PhoneNumber: phone}
	if err := u.guests.Create(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func (u *guestUseCaseImpl) RequestOTP(ctx context.Context, phoneNumber, clientIP string) (*model.OTPRequestResult, error) {
	unavailable := model.Detail(model.ErrBadRequest, "Cannot send an otp code, please try again later.")
	if !u.enabled {
		metrics.OTPRequestsTotal.WithLabelValues("disabled").Inc()
		return nil, unavailable
	}

	allowed, err := u.limiter.Allow(ctx, "otp:"+clientIP, u.hourLimit, time.Hour)
	if err != nil {
		return nil, err
	}
	if !allowed {
		metrics.OTPRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, model.Detail(model.ErrRateLimited, fmt.Sprintf("Rate limit exceeded: %d per 1 hour", u.hourLimit))
	}

	guest, err := u.getOrCreate(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}
	if err := u.otp.Save(ctx, phoneNumber, code, u.expire); err != nil {
		return nil, err
	}
	if err := u.sms.SendOTP(ctx, phoneNumber, code, u.expire); err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("failed").Inc()
		u.logger.Warn("OTPの送信失敗", zap.Int64("guest_id", guest.ID), zap.Error(err))
		return nil, unavailable
	}

	now := u.now()
	if err := u.guests.RecordOTPRequest(ctx, guest.ID, now); err != nil {
		return nil, err
	}
	metrics.OTPRequestsTotal.WithLabelValues("sent").Inc()

	return &model.OTPRequestResult{
		Status:            "success",
		ExpirationMinutes: int(u.expire / time.Minute),
		ExpiresAt:         now.Add(u.expire).UTC(),
	}, nil
}

func (u *guestUseCaseImpl) RequestLocation(ctx context.Context, req *model.LocationRequestOTP) (*model.SubmissionResult, error) {
	if !u.enabled {
		return nil, model.Detail(model.ErrBadRequest, "Cannot verify otp codes at the moment, please try again later.")
	}

	allowed, err := u.limiter.Allow(ctx, "otp-verify:"+req.PhoneNumber, otpVerifyAttempts, u.expire)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if err := u.otp.Invalidate(ctx, req.PhoneNumber); err != nil {
			u.logger.Warn("OTPの無効化失敗", zap.Error(err))
		}
		metrics.OTPRequestsTotal.WithLabelValues("verify_locked").Inc()
		return nil, model.Detail(model.ErrRateLimited, "Too many attempts, please request a new otp code later.")
	}

	ok, err := u.otp.Verify(ctx, req.PhoneNumber, req.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.Detail(model.ErrBadRequest, "Provided otp is not valid or expired")
	}

	guest, err := u.getOrCreate(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	guestID := guest.ID
	return u.locations.RequestLocation(ctx, req.Lat, req.Lng, &guestID)
}

// generateOTP 6桁の数字コード
func generateOTP() (string, error) {
	upper := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		upper.Mul(upper, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("OTPの生成失敗: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
