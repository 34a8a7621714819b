package usecase

import (
	"context"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
)

type ChangeLogUseCase interface {
	ListByLocation(ctx context.Context, locationID int64) ([]model.ChangeLog, error)
	// ToggleVisibility 表示・非表示を切り替える
	ToggleVisibility(ctx context.Context, id int64) (*model.ChangeLog, error)
}

type changeLogUseCaseImpl struct {
	tx         repository.Transactor
	changelogs repository.ChangeLogRepository
}

func NewChangeLogUseCase(tx repository.Transactor, changelogs repository.ChangeLogRepository) ChangeLogUseCase {
	return &changeLogUseCaseImpl{tx: tx, changelogs: changelogs}
}

func (u *changeLogUseCaseImpl) ListByLocation(ctx context.Context, locationID int64) ([]model.ChangeLog, error) {
	return u.changelogs.ListByLocation(ctx, locationID)
}

func (u *changeLogUseCaseImpl) ToggleVisibility(ctx context.Context, id int64) (*model.ChangeLog, error) {
	var cl *model.ChangeLog
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cl, err = u.changelogs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cl.IsVisible = !cl.IsVisible
		return u.changelogs.SetVisibility(ctx, id, cl.IsVisible)
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}
