package notify

import (
	"context"
	"fmt"
	"time"

	"Aidmap-App/internal/config"
	"Aidmap-App/internal/domain/model"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SMSGateway HTTPのSMSゲートウェイ経由でOTPを送る
type SMSGateway struct {
	httpClient *resty.Client
	brand      string
	logger     *zap.Logger
}

type smsRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
	Source      string `json:"source"`
}

type smsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewSMSGateway SMSゲートウェイのクライアントを作成
func NewSMSGateway(cfg config.SMSConfig, brand string, logger *zap.Logger) *SMSGateway {
	client := resty.New().
		SetBaseURL(cfg.GatewayURL).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SMSGateway{httpClient: client, brand: brand, logger: logger}
}

func (g *SMSGateway) SendOTP(ctx context.Context, phoneNumber, code string, validity time.Duration) error {
	req := smsRequest{
		PhoneNumber: phoneNumber,
		Message: fmt.Sprintf("%s: your verification code is %s. It expires in %d minutes.",
			g.brand, code, int(validity.Minutes())),
		Source: "Location request",
	}

	var out smsResponse
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		g.logger.Error("SMS送信失敗", zap.Error(err))
		return fmt.Errorf("SMSゲートウェイに接続できません: %w", model.ErrUnavailable)
	}
	if resp.IsError() {
		g.logger.Error("SMSゲートウェイがエラーを返しました",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return fmt.Errorf("SMSゲートウェイのエラー (status: %d): %w", resp.StatusCode(), model.ErrUnavailable)
	}
	g.logger.Info("OTPを送信しました", zap.String("status", out.Status))
	return nil
}
