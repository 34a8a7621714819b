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

type PostgresChangeLogRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresChangeLogRepository(client *database.PostgreSQLClient) repository.ChangeLogRepository {
	return &PostgresChangeLogRepository{client: client}
}

const changelogColumns = `id, created_at, updated_at, submitted_by, location_id, action_type, old_flags, new_flags, is_visible`

func scanChangeLog(scan func(dest ...any) error) (*model.ChangeLog, error) {
	var c model.ChangeLog
	var submittedBy sql.NullInt64
	var oldFlags, newFlags []byte
	if err := scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &submittedBy, &c.LocationID, &c.ActionType,
		&oldFlags, &newFlags, &c.IsVisible); err != nil {
		return nil, err
	}
	c.SubmittedBy = nullInt64Ptr(submittedBy)
	c.OldFlags = oldFlags
	c.NewFlags = newFlags
	return &c, nil
}

// jsonb 空の場合は {} として保存する
func jsonb(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

func (r *PostgresChangeLogRepository) Create(ctx context.Context, c *model.ChangeLog) error {
	query := `INSERT INTO changelogs (submitted_by, location_id, action_type, old_flags, new_flags, is_visible)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		c.SubmittedBy, c.LocationID, c.ActionType, jsonb(c.OldFlags), jsonb(c.NewFlags), c.IsVisible,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("変更履歴の保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresChangeLogRepository) GetByID(ctx context.Context, id int64) (*model.ChangeLog, error) {
	row := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`SELECT `+changelogColumns+` FROM changelogs WHERE id = $1`, id)
	c, err := scanChangeLog(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("変更履歴の取得失敗: %w", err)
	}
	return c, nil
}

// ListByLocation 表示対象の履歴を新しい順に返す
func (r *PostgresChangeLogRepository) ListByLocation(ctx context.Context, locationID int64) ([]model.ChangeLog, error) {
	query := `SELECT ` + changelogColumns + ` FROM changelogs
		WHERE location_id = $1 AND is_visible = TRUE ORDER BY created_at DESC`

	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("変更履歴一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	logs := []model.ChangeLog{}
	for rows.Next() {
		c, err := scanChangeLog(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("変更履歴スキャンエラー: %w", err)
		}
		logs = append(logs, *c)
	}
	return logs, rows.Err()
}

func (r *PostgresChangeLogRepository) SetVisibility(ctx context.Context, id int64, visible bool) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE changelogs SET is_visible = $1, updated_at = NOW() WHERE id = $2`, visible, id)
	if err != nil {
		return fmt.Errorf("変更履歴の表示切替失敗: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

func (r *PostgresChangeLogRepository) SetVisibilityByUser(ctx context.Context, userID int64, visible bool) (int64, error) {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE changelogs SET is_visible = $1, updated_at = NOW() WHERE submitted_by = $2`, visible, userID)
	if err != nil {
		return 0, fmt.Errorf("ユーザー %d の変更履歴の表示切替失敗: %w", userID, err)
	}
	return res.RowsAffected()
}
