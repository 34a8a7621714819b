package usecase

import (
	"context"
	"testing"

	"Aidmap-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeLogToggleVisibility(t *testing.T) {
	ctx := context.Background()
	repo := &fakeChangeLogRepo{}
	require.NoError(t, repo.Create(ctx, &model.ChangeLog{LocationID: 5, IsVisible: true}))
	uc := NewChangeLogUseCase(&fakeTx{}, repo)

	cl, err := uc.ToggleVisibility(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cl.IsVisible)

	cl, err = uc.ToggleVisibility(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cl.IsVisible)

	list, err := uc.ListByLocation(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsVisible)

	_, err = uc.ToggleVisibility(ctx, 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
