package notify

import (
	"context"
	"fmt"

	"Aidmap-App/internal/config"

	"github.com/matcornic/hermes/v2"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// dialer gomail.Dialer のうち送信に使う部分
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer hermesで本文を生成し、SMTPで送信する
type SMTPMailer struct {
	dialer  dialer
	from    string
	product string
	link    string
	h       hermes.Hermes
	logger  *zap.Logger
}

// NewSMTPMailer SMTPメーラーを作成
func NewSMTPMailer(cfg config.MailConfig, projectName string, logger *zap.Logger) *SMTPMailer {
	d := gomail.NewPlainDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return newSMTPMailer(d, cfg, projectName, logger)
}

func newSMTPMailer(d dialer, cfg config.MailConfig, projectName string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:  d,
		from:    cfg.From,
		product: projectName,
		link:    cfg.DomainAddress,
		h: hermes.Hermes{
			Product: hermes.Product{
				Name: projectName,
				Link: cfg.DomainAddress,
			},
		},
		logger: logger,
	}
}

// SendInvite 登録用リンクを送る
func (m *SMTPMailer) SendInvite(ctx context.Context, to, link string) error {
	email := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"You have been invited to join " + m.product + ".",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to finish your registration:",
					Button: hermes.Button{
						Color: "#22BC66",
						Text:  "Complete registration",
						Link:  link,
					},
				},
			},
			Outros: []string{
				"The link expires in 24 hours.",
			},
		},
	}
	return m.send(ctx, to, "Invitation to "+m.product, email)
}

// SendPasswordRenewal パスワード再設定リンクを送る
func (m *SMTPMailer) SendPasswordRenewal(ctx context.Context, to, link string) error {
	email := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"You have received this email because a password reset request for your " + m.product + " account was received.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to reset your password:",
					Button: hermes.Button{
						Color: "#3D5AFE",
						Text:  "Reset your password",
						Link:  link,
					},
				},
			},
			Outros: []string{
				"If you did not request a password reset, no further action is required on your part.",
			},
		},
	}
	return m.send(ctx, to, "Password reset for "+m.product, email)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, email hermes.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := m.h.GenerateHTML(email)
	if err != nil {
		return fmt.Errorf("メール本文の生成失敗: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("Reply-To", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("メール送信失敗", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("メール送信失敗: %w", err)
	}
	m.logger.Info("メール送信完了", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NopMailer EMAILS_ENABLED=false の時に使う。送信せずログだけ残す
type NopMailer struct {
	logger *zap.Logger
}

func NewNopMailer(logger *zap.Logger) *NopMailer { return &NopMailer{logger: logger} }

func (m *NopMailer) SendInvite(ctx context.Context, to, link string) error {
	m.logger.Debug("メール送信は無効です", zap.String("to", to), zap.String("kind", "invite"))
	return nil
}

func (m *NopMailer) SendPasswordRenewal(ctx context.Context, to, link string) error {
	m.logger.Debug("メール送信は無効です", zap.String("to", to), zap.String("kind", "password-renewal"))
	return nil
}
