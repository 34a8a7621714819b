package usecase

import (
	"context"
	"errors"
	"strings"

	"Aidmap-App/internal/auth"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"go.uber.org/zap"
)

// 初期組織名
const defaultOrganization = "DIM"

// ロールの権限の強さ
var defaultAuthority = map[string]int{
	model.RolePlatformAdministrator: 100,
	model.RoleOrganizationalLeader:  50,
	model.RoleAidWorker:             10,
}

// defaultPhoneCodes 初期登録する国別の電話番号コード
var defaultPhoneCodes = []model.PhoneCode{
	{CountryCode: "UA", VerboseName: "Ukraine", PhoneCode: "+380", IsActive: true},
	{CountryCode: "PL", VerboseName: "Poland", PhoneCode: "+48", IsActive: true},
	{CountryCode: "MD", VerboseName: "Moldova", PhoneCode: "+373", IsActive: true},
	{CountryCode: "RO", VerboseName: "Romania", PhoneCode: "+40", IsActive: true},
	{CountryCode: "SK", VerboseName: "Slovakia", PhoneCode: "+421", IsActive: true},
	{CountryCode: "HU", VerboseName: "Hungary", PhoneCode: "+36", IsActive: true},
	{CountryCode: "DE", VerboseName: "Germany", PhoneCode: "+49", IsActive: true},
	{CountryCode: "GB", VerboseName: "United Kingdom", PhoneCode: "+44", IsActive: true},
	{CountryCode: "US", VerboseName: "United States", PhoneCode: "+1", IsActive: true},
}

// SeedUseCase 初期データの投入。何度実行しても結果は同じ
type SeedUseCase interface {
	Seed(ctx context.Context) (*model.User, error)
}

type seedUseCaseImpl struct {
	tx            repository.Transactor
	oauth         repository.OauthRepository
	organizations repository.OrganizationRepository
	users         repository.UserRepository
	phoneCodes    repository.PhoneCodeRepository
	email         string
	password      string
	logger        *zap.Logger
}

func NewSeedUseCase(
	tx repository.Transactor,
	oauth repository.OauthRepository,
	organizations repository.OrganizationRepository,
	users repository.UserRepository,
	phoneCodes repository.PhoneCodeRepository,
	superuserEmail, superuserPassword string,
	logger *zap.Logger,
) SeedUseCase {
	return &seedUseCaseImpl{
		tx:            tx,
		oauth:         oauth,
		organizations: organizations,
		users:         users,
		phoneCodes:    phoneCodes,
		email:         superuserEmail,
		password:      superuserPassword,
		logger:        logger,
	}
}

func (u *seedUseCaseImpl) Seed(ctx context.Context) (*model.User, error) {
	var superuser *model.User
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, s := range model.DefaultScopes {
			if _, err := u.oauth.GetOrCreateScope(ctx, strings.SplitN(s, ":", 2)[0], s); err != nil {
				return err
			}
		}

		roles := []struct {
			name   string
			scopes []string
		}{
			{model.RolePlatformAdministrator, model.DefaultScopes},
			{model.RoleOrganizationalLeader, model.OrganizationalLeaderScopes},
			{model.RoleAidWorker, model.AidWorkerScopes},
		}
		for _, r := range roles {
			if err := u.ensureRole(ctx, r.name, r.scopes); err != nil {
				return err
			}
		}

		org, err := u.organizations.GetByName(ctx, defaultOrganization)
		if errors.Is(err, model.ErrNotFound) {
			org = &model.Organization{Name: defaultOrganization, IsActive: true}
			err = u.organizations.Create(ctx, org)
		}
		if err != nil {
			return err
		}

		superuser, err = u.ensureSuperuser(ctx, org.ID)
		if err != nil {
			return err
		}

		for i := range defaultPhoneCodes {
			code := defaultPhoneCodes[i]
			if err := u.phoneCodes.Upsert(ctx, &code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("初期データを投入しました", zap.Int64("superuser_id", superuser.ID))
	return superuser, nil
}

// ensureRole ロールを作成、既存ならスコープを既定値に揃える
func (u *seedUseCaseImpl) ensureRole(ctx context.Context, name string, scopeNames []string) error {
	scopes, err := u.oauth.GetScopesByNames(ctx, scopeNames)
	if err != nil {
		return err
	}
	role, err := u.oauth.GetRoleByName(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		return u.oauth.CreateRole(ctx, &model.OauthRole{VerboseName: name, Authority: defaultAuthority[name], Scopes: scopes})
	}
	if err != nil {
		return err
	}
	role.Scopes = scopes
	return u.oauth.UpdateRole(ctx, role)
}

func (u *seedUseCaseImpl) ensureSuperuser(ctx context.Context, orgID int64) (*model.User, error) {
	user, err := u.users.GetByEmail(ctx, u.email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hashed, err := auth.HashPassword(u.password)
	if err != nil {
		return nil, err
	}
	org := orgID
	user = &model.User{
		Email:          u.email,
		OrganizationID: &org,
		HashedPassword: hashed,
		EmailConfirmed: true,
		IsActive:       true,
		Role:           model.RolePlatformAdministrator,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
