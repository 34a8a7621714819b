package repository

import (
	"context"
	"time"

	"Aidmap-App/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByRegistrationToken(ctx context.Context, token string) (*model.User, error)
	GetByRenewalToken(ctx context.Context, token string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	TouchActivity(ctx context.Context, id int64, at time.Time) error
	ListByOrganization(ctx context.Context, organizationID int64) ([]model.User, error)
}

type OrganizationRepository interface {
	Create(ctx context.Context, organization *model.Organization) error
	GetByID(ctx context.Context, id int64) (*model.Organization, error)
	GetByName(ctx context.Context, name string) (*model.Organization, error)
	List(ctx context.Context, limit, offset int) ([]model.Organization, error)
	SearchByPrefix(ctx context.Context, prefix string) ([]model.Organization, error)
	Update(ctx context.Context, organization *model.Organization) error
	Delete(ctx context.Context, id int64) error
}

type OauthRepository interface {
	GetOrCreateScope(ctx context.Context, module, scope string) (*model.OauthScope, error)
	ListScopes(ctx context.Context) ([]model.OauthScope, error)
	GetScopesByIDs(ctx context.Context, ids []int64) ([]model.OauthScope, error)
	GetScopesByNames(ctx context.Context, names []string) ([]model.OauthScope, error)
	CreateRole(ctx context.Context, role *model.OauthRole) error
	GetRoleByID(ctx context.Context, id int64) (*model.OauthRole, error)
	GetRoleByName(ctx context.Context, name string) (*model.OauthRole, error)
	ListRoles(ctx context.Context) ([]model.OauthRole, error)
	UpdateRole(ctx context.Context, role *model.OauthRole) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByTokenID(ctx context.Context, userID int64, tokenID string) (*model.Session, error)
	ListActive(ctx context.Context, userID int64) ([]model.Session, error)
	Revoke(ctx context.Context, userID, sessionID int64) (bool, error)
}

type GuestRepository interface {
	GetByPhone(ctx context.Context, phone string) (*model.GuestUser, error)
	Create(ctx context.Context, guest *model.GuestUser) error
	RecordOTPRequest(ctx context.Context, id int64, at time.Time) error
}

type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	ListByOrganization(ctx context.Context, organizationID int64, limit, offset int) ([]model.ActivityLog, error)
}

type PhoneCodeRepository interface {
	ListActive(ctx context.Context) ([]model.PhoneCode, error)
	Upsert(ctx context.Context, code *model.PhoneCode) error
}

// Transactor 複数リポジトリへの書き込みを1トランザクションにまとめる
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
