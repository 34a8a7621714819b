package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"
)

type PostgresGuestRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresGuestRepository(client *database.PostgreSQLClient) repository.GuestRepository {
	return &PostgresGuestRepository{client: client}
}

func (r *PostgresGuestRepository) GetByPhone(ctx context.Context, phone string) (*model.GuestUser, error) {
	var g model.GuestUser
	var last sql.NullTime
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`SELECT id, created_at, phone_number, last_request, total_otp_requests FROM guest_users WHERE phone_number = $1`,
		phone,
	).Scan(&g.ID, &g.CreatedAt, &g.PhoneNumber, &last, &g.TotalOTPRequests)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("ゲストの取得失敗: %w", err)
	}
	g.LastRequest = nullTimePtr(last)
	return &g, nil
}

// Create 同じ電話番号が同時に登録された場合は既存の行を返す
func (r *PostgresGuestRepository) Create(ctx context.Context, g *model.GuestUser) error {
	query := `INSERT INTO guest_users (phone_number) VALUES ($1)
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING id, created_at, total_otp_requests`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, g.PhoneNumber).
		Scan(&g.ID, &g.CreatedAt, &g.TotalOTPRequests)
	if err != nil {
		return fmt.Errorf("ゲストの作成失敗: %w", err)
	}
	return nil
}

func (r *PostgresGuestRepository) RecordOTPRequest(ctx context.Context, id int64, at time.Time) error {
	_, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE guest_users SET last_request = $1, total_otp_requests = total_otp_requests + 1 WHERE id = $2`,
		at, id)
	if err != nil {
		return fmt.Errorf("OTP送信記録の更新失敗: %w", err)
	}
	return nil
}
