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

type PostgresZoneRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresZoneRepository(client *database.PostgreSQLClient) repository.ZoneRepository {
	return &PostgresZoneRepository{client: client}
}

func (r *PostgresZoneRepository) Create(ctx context.Context, zone *model.Zone) error {
	query := `INSERT INTO zones (zone_type, bounding_box, verbose_name)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		zone.ZoneType, zone.BoundingBox, zone.VerboseName,
	).Scan(&zone.ID, &zone.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("制限区域の保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresZoneRepository) GetByName(ctx context.Context, name string) (*model.Zone, error) {
	query := `SELECT id, created_at, zone_type, bounding_box, verbose_name FROM zones WHERE verbose_name = $1`

	var z model.Zone
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, name).
		Scan(&z.ID, &z.CreatedAt, &z.ZoneType, &z.BoundingBox, &z.VerboseName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("制限区域の取得失敗: %w", err)
	}
	return &z, nil
}

func (r *PostgresZoneRepository) GetAll(ctx context.Context) ([]model.Zone, error) {
	query := `SELECT id, created_at, zone_type, bounding_box, verbose_name FROM zones ORDER BY id`

	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("制限区域一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	zones := []model.Zone{}
	for rows.Next() {
		var z model.Zone
		if err := rows.Scan(&z.ID, &z.CreatedAt, &z.ZoneType, &z.BoundingBox, &z.VerboseName); err != nil {
			return nil, fmt.Errorf("制限区域スキャンエラー: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *PostgresZoneRepository) Delete(ctx context.Context, id int64) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("制限区域の削除失敗: %w", err)
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
