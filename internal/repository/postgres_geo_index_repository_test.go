package repository

import (
	"context"
	"database/sql"
	"testing"

	"Aidmap-App/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoIndexRepository_FindByPrefix(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresGeoIndexRepository(client)

	rows := sqlmock.NewRows([]string{"id", "location_id", "geohash", "lat", "lng", "status"}).
		AddRow(1, 10, "u8vxn0000000", 49.23, 28.47, 1).
		AddRow(2, 11, "u8cz00000000", 50.25, 28.65, 3)

	mock.ExpectQuery(`SELECT .* FROM geospatial_index WHERE geohash LIKE \$1`).
		WithArgs("u8%").
		WillReturnRows(rows)

	entries, err := repo.FindByPrefix(context.Background(), "u8")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(11), entries[1].LocationID)
	assert.Equal(t, model.StatusApproved, entries[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeoIndexRepository_Create(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresGeoIndexRepository(client)

	mock.ExpectQuery(`INSERT INTO geospatial_index`).
		WithArgs(int64(10), "u8vxn0000000", 49.23, 28.47, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	entry := &model.GeoIndexEntry{
		LocationID: 10,
		Geohash:    "u8vxn0000000",
		Position:   model.LatLng{Lat: 49.23, Lng: 28.47},
		Status:     model.StatusAwaitingReview,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, int64(5), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeoIndexRepository_FindByLocationID_NotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresGeoIndexRepository(client)

	mock.ExpectQuery(`WHERE location_id = \$1`).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByLocationID(context.Background(), 4)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
