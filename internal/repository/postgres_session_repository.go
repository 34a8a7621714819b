package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"
)

type PostgresSessionRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresSessionRepository(client *database.PostgreSQLClient) repository.SessionRepository {
	return &PostgresSessionRepository{client: client}
}

const sessionColumns = `id, created_at, expires_at, user_id, token_id, user_agent, user_ip, is_active`

func scanSession(scan func(dest ...any) error) (*model.Session, error) {
	var s model.Session
	var agent, ip sql.NullString
	if err := scan(&s.ID, &s.CreatedAt, &s.ExpiresAt, &s.UserID, &s.TokenID, &agent, &ip, &s.IsActive); err != nil {
		return nil, err
	}
	s.UserAgent = agent.String
	s.UserIP = ip.String
	return &s, nil
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO session_history (expires_at, user_id, token_id, user_agent, user_ip, is_active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		s.ExpiresAt, s.UserID, s.TokenID, nullString(s.UserAgent), nullString(s.UserIP), s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("セッションの保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByTokenID(ctx context.Context, userID int64, tokenID string) (*model.Session, error) {
	row := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM session_history WHERE user_id = $1 AND token_id = $2`, userID, tokenID)
	s, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("セッションの取得失敗: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) ListActive(ctx context.Context, userID int64) ([]model.Session, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM session_history
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW() ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("セッションスキャンエラー: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *PostgresSessionRepository) Revoke(ctx context.Context, userID, sessionID int64) (bool, error) {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE session_history SET is_active = FALSE WHERE user_id = $1 AND id = $2`, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("セッションの失効失敗: %w", err)
	}
	return affected(res)
}
