package repository

import (
	"context"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/paulmach/orb"
)

// Geocoder 住所と座標の相互変換、区域境界の取得
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*model.Address, error)
	Geocode(ctx context.Context, address, city string) (*model.LatLng, error)
	BoundaryByName(ctx context.Context, name string) (orb.Geometry, error)
}

// SMSSender OTPコードのSMS送信
type SMSSender interface {
	SendOTP(ctx context.Context, phoneNumber, code string, validity time.Duration) error
}

// Mailer 招待・パスワード再設定メールの送信
type Mailer interface {
	SendInvite(ctx context.Context, to, link string) error
	SendPasswordRenewal(ctx context.Context, to, link string) error
}

// OTPStore 発行済みOTPの保存と照合
type OTPStore interface {
	Save(ctx context.Context, phoneNumber, code string, ttl time.Duration) error
	// 一致した場合はコードを消費する
	Verify(ctx context.Context, phoneNumber, code string) (bool, error)
	// Invalidate 照合回数の上限に達したコードを破棄する
	Invalidate(ctx context.Context, phoneNumber string) error
}

// RateLimiter 固定ウィンドウのレート制限
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
