package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeLogRepository_Create_EmptyOldFlags(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresChangeLogRepository(client)
	now := time.Now()
	user := int64(2)

	mock.ExpectQuery(`INSERT INTO changelogs`).
		WithArgs(&user, int64(10), model.ChangeLogActionReport, []byte("{}"), []byte(`{"water":{}}`), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	c := &model.ChangeLog{
		SubmittedBy: &user,
		LocationID:  10,
		ActionType:  model.ChangeLogActionReport,
		NewFlags:    json.RawMessage(`{"water":{}}`),
		IsVisible:   true,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(1), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepository_ListByLocation(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresChangeLogRepository(client)
	now := time.Now()

	mock.ExpectQuery(`FROM changelogs\s+WHERE location_id = \$1 AND is_visible = TRUE`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "submitted_by", "location_id",
			"action_type", "old_flags", "new_flags", "is_visible"}).
			AddRow(2, now, now, nil, 10, 1, []byte(`{}`), []byte(`{"a":1}`), true))

	logs, err := repo.ListByLocation(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].SubmittedBy)
	assert.JSONEq(t, `{"a":1}`, string(logs[0].NewFlags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepository_SetVisibilityByUser(t *testing.T) {
	client, mock := setupMockDB(t)
	repo := NewPostgresChangeLogRepository(client)

	mock.ExpectExec(`UPDATE changelogs SET is_visible = \$1, updated_at = NOW\(\) WHERE submitted_by = \$2`).
		WithArgs(false, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.SetVisibilityByUser(context.Background(), 4, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
