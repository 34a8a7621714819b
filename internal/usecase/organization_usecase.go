package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"go.uber.org/zap"
)

type OrganizationUseCase interface {
	Create(ctx context.Context, req *model.OrganizationBase) (*model.Organization, error)
	// AddWithLeaders 組織を作成し、各メールアドレスをリーダーとして招待する
	// 戻り値はメールアドレスから登録トークンへの対応
	AddWithLeaders(ctx context.Context, req *model.OrganizationLeaderInvite) (map[string]string, error)
	List(ctx context.Context, page, limit int) ([]model.Organization, error)
	Search(ctx context.Context, query string) ([]model.Organization, error)
	Get(ctx context.Context, id int64) (*model.Organization, error)
	Edit(ctx context.Context, current *model.User, id int64, req *model.OrganizationBase) (*model.Organization, error)
	AddMembers(ctx context.Context, id int64, emails []string) (*model.Organization, error)
	RemoveMember(ctx context.Context, id, userID int64) (*model.Organization, error)
	// ToggleActivity 組織と所属ユーザーをまとめて有効・無効にする
	ToggleActivity(ctx context.Context, current *model.User, id int64) (*model.Organization, error)
	Delete(ctx context.Context, id int64) error
}

type organizationUseCaseImpl struct {
	tx            repository.Transactor
	organizations repository.OrganizationRepository
	users         repository.UserRepository
	changelogs    repository.ChangeLogRepository
	activity      repository.ActivityLogRepository
	invites       UserUseCase
	logger        *zap.Logger
}

func NewOrganizationUseCase(
	tx repository.Transactor,
	organizations repository.OrganizationRepository,
	users repository.UserRepository,
	changelogs repository.ChangeLogRepository,
	activity repository.ActivityLogRepository,
	invites UserUseCase,
	logger *zap.Logger,
) OrganizationUseCase {
	return &organizationUseCaseImpl{
		tx:            tx,
		organizations: organizations,
		users:         users,
		changelogs:    changelogs,
		activity:      activity,
		invites:       invites,
		logger:        logger,
	}
}

func (u *organizationUseCaseImpl) create(ctx context.Context, req *model.OrganizationBase, existsMsg string) (*model.Organization, error) {
	if _, err := u.organizations.GetByName(ctx, req.Name); err == nil {
		return nil, model.Detail(model.ErrBadRequest, existsMsg)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	org := &model.Organization{Name: req.Name, IsActive: true}
	if req.Website != nil {
		org.Website = *req.Website
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if err := u.organizations.Create(ctx, org); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, model.Detail(model.ErrBadRequest, existsMsg)
		}
		return nil, err
	}
	org.Participants = []model.User{}
	u.logger.Info("組織を作成しました", zap.Int64("organization_id", org.ID), zap.String("name", org.Name))
	return org, nil
}

func (u *organizationUseCaseImpl) Create(ctx context.Context, req *model.OrganizationBase) (*model.Organization, error) {
	return u.create(ctx, req, "Organization exists")
}

func (u *organizationUseCaseImpl) AddWithLeaders(ctx context.Context, req *model.OrganizationLeaderInvite) (map[string]string, error) {
	tokens := make(map[string]string, len(req.Emails))
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		org, err := u.create(ctx, &req.OrganizationBase, "Such organization already exists.")
		if err != nil {
			return err
		}
		for _, email := range req.Emails {
			user, err := u.invites.InviteLeader(ctx, email, org.ID)
			if err != nil {
				return err
			}
			if user.RegistrationToken != nil {
				tokens[user.Email] = *user.RegistrationToken
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (u *organizationUseCaseImpl) List(ctx context.Context, page, limit int) ([]model.Organization, error) {
	limit, offset := pagination(page, limit)
	return u.organizations.List(ctx, limit, offset)
}

func (u *organizationUseCaseImpl) Search(ctx context.Context, query string) ([]model.Organization, error) {
	return u.organizations.SearchByPrefix(ctx, strings.ToLower(query))
}

func (u *organizationUseCaseImpl) Get(ctx context.Context, id int64) (*model.Organization, error) {
	org, err := u.organizations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := u.users.ListByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.User{}
	}
	org.Participants = members
	return org, nil
}

func (u *organizationUseCaseImpl) Edit(ctx context.Context, current *model.User, id int64, req *model.OrganizationBase) (*model.Organization, error) {
	org, err := u.organizations.GetByID(ctx, id)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if org == nil || current.OrganizationID == nil || *current.OrganizationID != id {
		return nil, model.Detail(model.ErrForbidden, "Not permitted.")
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Website != nil {
		org.Website = *req.Website
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if err := u.organizations.Update(ctx, org); err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

// AddMembers 確認済みかつ有効なユーザーのみ組織に追加する
func (u *organizationUseCaseImpl) AddMembers(ctx context.Context, id int64, emails []string) (*model.Organization, error) {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := u.organizations.GetByID(ctx, id); err != nil {
			return err
		}
		for _, email := range emails {
			user, err := u.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !user.EmailConfirmed || !user.IsActive {
				continue
			}
			org := id
			user.OrganizationID = &org
			if err := u.users.Update(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

func (u *organizationUseCaseImpl) RemoveMember(ctx context.Context, id, userID int64) (*model.Organization, error) {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := u.organizations.GetByID(ctx, id); err != nil {
			return err
		}
		user, err := u.users.GetByID(ctx, userID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if user == nil || user.OrganizationID == nil || *user.OrganizationID != id {
			return model.Detail(model.ErrBadRequest, "This user does not belong to such organization")
		}
		user.OrganizationID = nil
		return u.users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

func (u *organizationUseCaseImpl) ToggleActivity(ctx context.Context, current *model.User, id int64) (*model.Organization, error) {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		org, err := u.organizations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		org.IsActive = !org.IsActive
		if err := u.organizations.Update(ctx, org); err != nil {
			return err
		}

		members, err := u.users.ListByOrganization(ctx, id)
		if err != nil {
			return err
		}
		for i := range members {
			member := &members[i]
			member.IsActive = org.IsActive
			if err := u.users.Update(ctx, member); err != nil {
				return err
			}
			if _, err := u.changelogs.SetVisibilityByUser(ctx, member.ID, org.IsActive); err != nil {
				return err
			}
		}

		verb := "blocked"
		if org.IsActive {
			verb = "unblocked"
		}
		actor := current.ID
		orgID := org.ID
		return u.activity.Create(ctx, &model.ActivityLog{
			IsActive:       true,
			ActionType:     model.ActivityOrganizationActivityToggled,
			UserID:         &actor,
			OrganizationID: &orgID,
			Description:    fmt.Sprintf("%s was %s by %s", org.Name, verb, current.Email),
		})
	})
	if err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

func (u *organizationUseCaseImpl) Delete(ctx context.Context, id int64) error {
	return u.organizations.Delete(ctx, id)
}
