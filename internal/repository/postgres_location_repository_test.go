package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/infrastructure/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*database.PostgreSQLClient, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewPostgreSQLClientFromDB(db, zap.NewNop()), mock
}

var locationCols = []string{
	"id", "created_at", "updated_at", "address", "street_number", "city", "country", "postcode", "status",
	"lat", "lng", "reported_by", "report_expires", "requested_by", "reports", "name",
}

func TestLocationRepository_CreateIfAbsent_Created(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)
	now := time.Now()

	loc := &model.Location{
		Address:  "Soborna",
		City:     "Vinnytsia",
		Status:   model.StatusAwaitingReview,
		Position: model.LatLng{Lat: 49.23, Lng: 28.47},
	}

	mock.ExpectQuery(`INSERT INTO locations .* ON CONFLICT \(lat, lng\) DO NOTHING`).
		WithArgs("Soborna", sqlmock.AnyArg(), "Vinnytsia", sqlmock.AnyArg(), sqlmock.AnyArg(), 1,
			49.23, 28.47, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))

	created, err := repo.CreateIfAbsent(context.Background(), loc)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(10), loc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_CreateIfAbsent_Conflict(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)

	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	created, err := repo.CreateIfAbsent(context.Background(), &model.Location{
		Status:   model.StatusAwaitingReview,
		Position: model.LatLng{Lat: 49.2363517942444, Lng: 28.46728473547444},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_GetByCoordinates(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)
	now := time.Now()

	rows := sqlmock.NewRows(locationCols).
		AddRow(3, now, now, "Soborna", "12", "Vinnytsia", "Ukraine", "21000", 3,
			49.23, 28.47, 5, nil, nil,
			[]byte(`{"water":{"flag":"available","description":""}}`), "DIM")

	mock.ExpectQuery(`SELECT .* FROM locations l .* WHERE l.lat = \$1 AND l.lng = \$2`).
		WithArgs(49.23, 28.47).
		WillReturnRows(rows)

	loc, err := repo.GetByCoordinates(context.Background(), 49.23, 28.47)
	require.NoError(t, err)
	assert.Equal(t, int64(3), loc.ID)
	assert.Equal(t, model.StatusApproved, loc.Status)
	assert.Equal(t, "21000", loc.Index)
	require.NotNil(t, loc.ReportedBy)
	assert.Equal(t, int64(5), *loc.ReportedBy)
	require.NotNil(t, loc.OrganizationName)
	assert.Equal(t, "DIM", *loc.OrganizationName)
	require.NotNil(t, loc.Reports)
	assert.Equal(t, "available", loc.Reports.Water.Flag)
	assert.Nil(t, loc.ReportExpires)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)

	mock.ExpectQuery(`SELECT .* WHERE l.id = \$1`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_Assign(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)
	expires := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`UPDATE locations SET reported_by = \$1 .* reported_by IS NULL`).
		WithArgs(int64(2), expires, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE locations SET reported_by = \$1`).
		WithArgs(int64(3), expires, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Assign(context.Background(), 7, 2, expires)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Assign(context.Background(), 7, 3, expires)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_ListPending(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)
	now := time.Now()

	rows := sqlmock.NewRows(locationCols).
		AddRow(1, now, now, nil, nil, nil, nil, nil, 1, 49.1, 28.1, nil, nil, 4, nil, nil).
		AddRow(2, now, now, nil, nil, nil, nil, nil, 1, 49.2, 28.2, nil, nil, nil, nil, nil)

	mock.ExpectQuery(`WHERE l.status = \$1 AND l.reported_by IS NULL`).
		WithArgs(1, 20, 40).
		WillReturnRows(rows)

	locs, err := repo.ListPending(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Nil(t, locs[0].Reports)
	require.NotNil(t, locs[0].RequestedBy)
	assert.Equal(t, int64(4), *locs[0].RequestedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_Delete(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresLocationRepository(client)

	mock.ExpectExec(`DELETE FROM locations WHERE id = \$1`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM locations WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
