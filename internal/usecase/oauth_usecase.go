package usecase

import (
	"context"
	"errors"

	"Aidmap-App/internal/auth"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"go.uber.org/zap"
)

type OauthUseCase interface {
	// CreateRole 同名のロールがあればそれを返す
	CreateRole(ctx context.Context, req *model.OauthRoleCreate) (*model.OauthRole, error)
	PatchRole(ctx context.Context, roleID int64, req *model.OauthRoleCreate) (*model.OauthRole, error)
	ListRoles(ctx context.Context) ([]model.OauthRole, error)
	ListScopes(ctx context.Context) ([]model.OauthScope, error)
	// ReloadRegistry ロールとスコープの対応を読み直す
	ReloadRegistry(ctx context.Context) error
}

type oauthUseCaseImpl struct {
	tx       repository.Transactor
	oauth    repository.OauthRepository
	registry *auth.ScopeRegistry
	logger   *zap.Logger
}

func NewOauthUseCase(tx repository.Transactor, oauth repository.OauthRepository, registry *auth.ScopeRegistry, logger *zap.Logger) OauthUseCase {
	return &oauthUseCaseImpl{tx: tx, oauth: oauth, registry: registry, logger: logger}
}

func (u *oauthUseCaseImpl) CreateRole(ctx context.Context, req *model.OauthRoleCreate) (*model.OauthRole, error) {
	var role *model.OauthRole
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := u.oauth.GetRoleByName(ctx, req.VerboseName)
		if err == nil {
			role = existing
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		scopes, err := u.oauth.GetScopesByIDs(ctx, req.ScopeIDs)
		if err != nil {
			return err
		}
		role = &model.OauthRole{VerboseName: req.VerboseName, Authority: req.Authority, Scopes: scopes}
		return u.oauth.CreateRole(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	if err := u.ReloadRegistry(ctx); err != nil {
		return nil, err
	}
	return role, nil
}

func (u *oauthUseCaseImpl) PatchRole(ctx context.Context, roleID int64, req *model.OauthRoleCreate) (*model.OauthRole, error) {
	var role *model.OauthRole
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		role, err = u.oauth.GetRoleByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Detail(model.ErrBadRequest, "Role not found.")
			}
			return err
		}

		scopes, err := u.oauth.GetScopesByIDs(ctx, req.ScopeIDs)
		if err != nil {
			return err
		}
		if req.VerboseName != "" {
			role.VerboseName = req.VerboseName
		}
		role.Authority = req.Authority
		role.Scopes = scopes
		return u.oauth.UpdateRole(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	if err := u.ReloadRegistry(ctx); err != nil {
		return nil, err
	}
	u.logger.Info("ロールを更新しました", zap.Int64("role_id", role.ID), zap.Int("scopes", len(role.Scopes)))
	return role, nil
}

func (u *oauthUseCaseImpl) ListRoles(ctx context.Context) ([]model.OauthRole, error) {
	return u.oauth.ListRoles(ctx)
}

func (u *oauthUseCaseImpl) ListScopes(ctx context.Context) ([]model.OauthScope, error) {
	return u.oauth.ListScopes(ctx)
}

func (u *oauthUseCaseImpl) ReloadRegistry(ctx context.Context) error {
	roles, err := u.oauth.ListRoles(ctx)
	if err != nil {
		return err
	}
	return u.registry.Load(roles)
}
