package repository

import (
	"context"
	"database/sql"
	"fmt"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"
)

type PostgresActivityLogRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresActivityLogRepository(client *database.PostgreSQLClient) repository.ActivityLogRepository {
	return &PostgresActivityLogRepository{client: client}
}

func (r *PostgresActivityLogRepository) Create(ctx context.Context, l *model.ActivityLog) error {
	query := `INSERT INTO activity_logs (is_active, action_type, user_id, organization_id, description)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		l.IsActive, l.ActionType, l.UserID, l.OrganizationID, l.Description,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("アクティビティログの保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresActivityLogRepository) ListByOrganization(ctx context.Context, organizationID int64, limit, offset int) ([]model.ActivityLog, error) {
	query := `SELECT id, created_at, updated_at, is_active, action_type, user_id, organization_id, description
		FROM activity_logs WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("アクティビティログの取得失敗: %w", err)
	}
	defer rows.Close()

	logs := []model.ActivityLog{}
	for rows.Next() {
		var l model.ActivityLog
		var userID, orgID sql.NullInt64
		var desc sql.NullString
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.IsActive, &l.ActionType, &userID, &orgID, &desc); err != nil {
			return nil, fmt.Errorf("アクティビティログスキャンエラー: %w", err)
		}
		l.UserID = nullInt64Ptr(userID)
		l.OrganizationID = nullInt64Ptr(orgID)
		l.Description = desc.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type PostgresPhoneCodeRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPhoneCodeRepository(client *database.PostgreSQLClient) repository.PhoneCodeRepository {
	return &PostgresPhoneCodeRepository{client: client}
}

func (r *PostgresPhoneCodeRepository) ListActive(ctx context.Context) ([]model.PhoneCode, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx,
		`SELECT id, country_code, verbose_name, phone_code, is_active FROM phone_codes
		WHERE is_active = TRUE ORDER BY verbose_name`)
	if err != nil {
		return nil, fmt.Errorf("電話番号コードの取得失敗: %w", err)
	}
	defer rows.Close()

	codes := []model.PhoneCode{}
	for rows.Next() {
		var c model.PhoneCode
		if err := rows.Scan(&c.ID, &c.CountryCode, &c.VerboseName, &c.PhoneCode, &c.IsActive); err != nil {
			return nil, fmt.Errorf("電話番号コードスキャンエラー: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *PostgresPhoneCodeRepository) Upsert(ctx context.Context, c *model.PhoneCode) error {
	query := `INSERT INTO phone_codes (country_code, verbose_name, phone_code, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (country_code) DO UPDATE
		SET verbose_name = EXCLUDED.verbose_name, phone_code = EXCLUDED.phone_code,
			is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING id`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		c.CountryCode, c.VerboseName, c.PhoneCode, c.IsActive,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("電話番号コード %s の保存失敗: %w", c.CountryCode, err)
	}
	return nil
}
