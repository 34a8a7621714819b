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

type PostgresGeoIndexRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresGeoIndexRepository(client *database.PostgreSQLClient) repository.GeoIndexRepository {
	return &PostgresGeoIndexRepository{client: client}
}

func (r *PostgresGeoIndexRepository) Create(ctx context.Context, entry *model.GeoIndexEntry) error {
	query := `INSERT INTO geospatial_index (location_id, geohash, lat, lng, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		entry.LocationID, entry.Geohash, entry.Position.Lat, entry.Position.Lng, int(entry.Status),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("インデックスの保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresGeoIndexRepository) FindByPrefix(ctx context.Context, prefix string) ([]model.GeoIndexEntry, error) {
	query := `SELECT id, location_id, geohash, lat, lng, status FROM geospatial_index WHERE geohash LIKE $1`

	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("geohash %s の検索失敗: %w", prefix, err)
	}
	defer rows.Close()

	entries := []model.GeoIndexEntry{}
	for rows.Next() {
		var e model.GeoIndexEntry
		var status int
		if err := rows.Scan(&e.ID, &e.LocationID, &e.Geohash, &e.Position.Lat, &e.Position.Lng, &status); err != nil {
			return nil, fmt.Errorf("インデックススキャンエラー: %w", err)
		}
		e.Status = model.LocationStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresGeoIndexRepository) FindByLocationID(ctx context.Context, locationID int64) (*model.GeoIndexEntry, error) {
	query := `SELECT id, location_id, geohash, lat, lng, status FROM geospatial_index WHERE location_id = $1`

	var e model.GeoIndexEntry
	var status int
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, locationID).
		Scan(&e.ID, &e.LocationID, &e.Geohash, &e.Position.Lat, &e.Position.Lng, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("インデックスの取得失敗: %w", err)
	}
	e.Status = model.LocationStatus(status)
	return &e, nil
}

func (r *PostgresGeoIndexRepository) UpdateStatus(ctx context.Context, locationID int64, status model.LocationStatus) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE geospatial_index SET status = $1 WHERE location_id = $2`, int(status), locationID)
	if err != nil {
		return fmt.Errorf("インデックスの更新失敗: %w", err)
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
