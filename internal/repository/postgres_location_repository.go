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

type PostgresLocationRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresLocationRepository(client *database.PostgreSQLClient) repository.LocationRepository {
	return &PostgresLocationRepository{
		client: client,
	}
}

// 報告者の所属組織名を一緒に取得する
const locationSelect = `SELECT l.id, l.created_at, l.updated_at, l.address, l.street_number, l.city, l.country,
	l.postcode, l.status, l.lat, l.lng, l.reported_by, l.report_expires, l.requested_by, l.reports, o.name
	FROM locations l
	LEFT JOIN users u ON u.id = l.reported_by
	LEFT JOIN organizations o ON o.id = u.organization_id`

// LocationResult locationSelectの結果を受け取るための構造体
type LocationResult struct {
	ID               int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Address          sql.NullString
	StreetNumber     sql.NullString
	City             sql.NullString
	Country          sql.NullString
	Postcode         sql.NullString
	Status           int
	Lat              float64
	Lng              float64
	ReportedBy       sql.NullInt64
	ReportExpires    sql.NullTime
	RequestedBy      sql.NullInt64
	Reports          *model.Reports
	OrganizationName sql.NullString
}

func (lr *LocationResult) scanArgs() []any {
	return []any{
		&lr.ID, &lr.CreatedAt, &lr.UpdatedAt, &lr.Address, &lr.StreetNumber, &lr.City, &lr.Country,
		&lr.Postcode, &lr.Status, &lr.Lat, &lr.Lng, &lr.ReportedBy, &lr.ReportExpires, &lr.RequestedBy,
		&lr.Reports, &lr.OrganizationName,
	}
}

// ToLocation LocationResultをmodel.Locationに変換
func (lr *LocationResult) ToLocation() *model.Location {
	loc := &model.Location{
		ID:            lr.ID,
		CreatedAt:     lr.CreatedAt,
		UpdatedAt:     lr.UpdatedAt,
		Address:       lr.Address.String,
		StreetNumber:  lr.StreetNumber.String,
		City:          lr.City.String,
		Country:       lr.Country.String,
		Index:         lr.Postcode.String,
		Status:        model.LocationStatus(lr.Status),
		Position:      model.LatLng{Lat: lr.Lat, Lng: lr.Lng},
		ReportedBy:    nullInt64Ptr(lr.ReportedBy),
		ReportExpires: nullTimePtr(lr.ReportExpires),
		RequestedBy:   nullInt64Ptr(lr.RequestedBy),
		Reports:       lr.Reports,
	}
	if lr.OrganizationName.Valid {
		name := lr.OrganizationName.String
		loc.OrganizationName = &name
	}
	return loc
}

func (r *PostgresLocationRepository) CreateIfAbsent(ctx context.Context, location *model.Location) (bool, error) {
	query := `INSERT INTO locations
		(address, street_number, city, country, postcode, status, lat, lng, reported_by, report_expires, requested_by, reports)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (lat, lng) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		nullString(location.Address), nullString(location.StreetNumber), nullString(location.City),
		nullString(location.Country), nullString(location.Index), int(location.Status),
		location.Position.Lat, location.Position.Lng,
		location.ReportedBy, location.ReportExpires, location.RequestedBy, location.Reports,
	).Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("地点の作成失敗: %w", err)
	}
	return true, nil
}

func (r *PostgresLocationRepository) GetByID(ctx context.Context, id int64) (*model.Location, error) {
	return r.getOne(ctx, locationSelect+` WHERE l.id = $1`, id)
}

func (r *PostgresLocationRepository) GetByCoordinates(ctx context.Context, lat, lng float64) (*model.Location, error) {
	return r.getOne(ctx, locationSelect+` WHERE l.lat = $1 AND l.lng = $2`, lat, lng)
}

func (r *PostgresLocationRepository) getOne(ctx context.Context, query string, args ...any) (*model.Location, error) {
	var result LocationResult
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, args...).Scan(result.scanArgs()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("地点データの取得失敗: %w", err)
	}
	return result.ToLocation(), nil
}

func (r *PostgresLocationRepository) list(ctx context.Context, query string, args ...any) ([]model.Location, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("地点一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		var result LocationResult
		if err := rows.Scan(result.scanArgs()...); err != nil {
			return nil, fmt.Errorf("地点データスキャンエラー: %w", err)
		}
		locations = append(locations, *result.ToLocation())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("地点一覧の読み込み失敗: %w", err)
	}
	return locations, nil
}

func (r *PostgresLocationRepository) CountPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM locations WHERE status = $1 AND reported_by IS NULL`

	var count int
	if err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, int(model.StatusAwaitingReview)).Scan(&count); err != nil {
		return 0, fmt.Errorf("未処理地点数の取得失敗: %w", err)
	}
	return count, nil
}

func (r *PostgresLocationRepository) ListPending(ctx context.Context, limit, offset int) ([]model.Location, error) {
	query := locationSelect + ` WHERE l.status = $1 AND l.reported_by IS NULL
		ORDER BY l.created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, int(model.StatusAwaitingReview), limit, offset)
}

func (r *PostgresLocationRepository) Assign(ctx context.Context, locationID, userID int64, expires time.Time) (bool, error) {
	query := `UPDATE locations SET reported_by = $1, report_expires = $2, updated_at = NOW()
		WHERE id = $3 AND reported_by IS NULL`

	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, query, userID, expires, locationID)
	if err != nil {
		return false, fmt.Errorf("地点の割り当て失敗: %w", err)
	}
	return affected(res)
}

func (r *PostgresLocationRepository) RemoveAssignment(ctx context.Context, locationID, userID int64) (bool, error) {
	query := `UPDATE locations SET reported_by = NULL, report_expires = NULL, updated_at = NOW()
		WHERE id = $1 AND reported_by = $2`

	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, query, locationID, userID)
	if err != nil {
		return false, fmt.Errorf("割り当て解除失敗: %w", err)
	}
	return affected(res)
}

func (r *PostgresLocationRepository) ListAssigned(ctx context.Context, userID int64) ([]model.Location, error) {
	query := locationSelect + ` WHERE l.reported_by = $1 AND l.status = $2 ORDER BY l.created_at DESC`
	return r.list(ctx, query, userID, int(model.StatusAwaitingReview))
}

func (r *PostgresLocationRepository) UpdateReport(ctx context.Context, location *model.Location) error {
	query := `UPDATE locations SET address = $1, street_number = $2, city = $3, postcode = $4,
		reports = $5, status = $6, report_expires = $7, reported_by = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		nullString(location.Address), nullString(location.StreetNumber), nullString(location.City),
		nullString(location.Index), location.Reports, int(location.Status), location.ReportExpires,
		location.ReportedBy, location.ID,
	).Scan(&location.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("報告の保存失敗: %w", err)
	}
	return nil
}

func (r *PostgresLocationRepository) Delete(ctx context.Context, id int64) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("地点の削除失敗: %w", err)
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

func (r *PostgresLocationRepository) ListRecent(ctx context.Context, status model.LocationStatus, limit int) ([]model.Location, error) {
	query := locationSelect + ` WHERE l.status = $1 ORDER BY l.created_at DESC LIMIT $2`
	return r.list(ctx, query, int(status), limit)
}

func (r *PostgresLocationRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, `DELETE FROM locations`)
	if err != nil {
		return 0, fmt.Errorf("全地点の削除失敗: %w", err)
	}
	return res.RowsAffected()
}
