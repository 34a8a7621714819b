package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Aidmap-App/internal/auth"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"github.com/goware/emailx"
	"go.uber.org/zap"
)

// 招待・再設定トークンのバイト数
const urlTokenBytes = 32

type UserUseCase interface {
	Register(ctx context.Context, req *model.UserCreate) (*model.User, error)
	// Invite 招待トークン付きの無効ユーザーを作り、登録リンクをメールで送る
	Invite(ctx context.Context, req *model.UserInvite) (*model.User, error)
	// InviteLeader 組織リーダーとして招待する
	InviteLeader(ctx context.Context, email string, organizationID int64) (*model.User, error)
	VerifyInvite(ctx context.Context, token string) (*model.User, error)
	ConfirmRegistration(ctx context.Context, token string, req *model.UserCreate) (*model.User, error)
	UpdateInfo(ctx context.Context, current *model.User, req *model.UserBase) (*model.User, error)
	ChangePassword(ctx context.Context, current *model.User, req *model.UserPasswordUpdate) (*model.User, error)
	// RequestPasswordReset 再設定トークンを発行して返す
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, req *model.UserPasswordRenewal) error
	ToggleActivity(ctx context.Context, current *model.User, userID int64) (*model.User, error)
	ChangeRole(ctx context.Context, current *model.User, userID, roleID int64) (*model.User, error)
	DeleteMe(ctx context.Context, current *model.User) error
}

type userUseCaseImpl struct {
	tx            repository.Transactor
	users         repository.UserRepository
	organizations repository.OrganizationRepository
	oauth         repository.OauthRepository
	changelogs    repository.ChangeLogRepository
	activity      repository.ActivityLogRepository
	mailer        repository.Mailer
	domain        string
	tokenExpire   time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// UserDeps UserUseCaseの依存関係
type UserDeps struct {
	Tx            repository.Transactor
	Users         repository.UserRepository
	Organizations repository.OrganizationRepository
	Oauth         repository.OauthRepository
	ChangeLogs    repository.ChangeLogRepository
	Activity      repository.ActivityLogRepository
	Mailer        repository.Mailer
	// DomainAddress メール内リンクのベースURL
	DomainAddress string
	TokenExpire   time.Duration
	Logger        *zap.Logger
}

func NewUserUseCase(d UserDeps) UserUseCase {
	return &userUseCaseImpl{
		tx:            d.Tx,
		users:         d.Users,
		organizations: d.Organizations,
		oauth:         d.Oauth,
		changelogs:    d.ChangeLogs,
		activity:      d.Activity,
		mailer:        d.Mailer,
		domain:        strings.TrimRight(d.DomainAddress, "/"),
		tokenExpire:   d.TokenExpire,
		logger:        d.Logger,
		now:           time.Now,
	}
}

// normalizeEmail 形式を検証して正規化する
func normalizeEmail(email string) (string, error) {
	if err := emailx.ValidateFast(email); err != nil {
		return "", model.Detail(model.ErrBadRequest, "Invalid email address")
	}
	return emailx.Normalize(email), nil
}

func (u *userUseCaseImpl) ensureAbsent(ctx context.Context, email string) error {
	_, err := u.users.GetByEmail(ctx, email)
	if err == nil {
		return model.Detail(model.ErrBadRequest, "User exists")
	}
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}

func (u *userUseCaseImpl) Register(ctx context.Context, req *model.UserCreate) (*model.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := u.ensureAbsent(ctx, email); err != nil {
		return nil, err
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       req.Username,
		FullName:       req.FullName,
		Email:          email,
		OrganizationID: req.Organization,
		HashedPassword: hashed,
		EmailConfirmed: true,
		IsActive:       true,
		Role:           model.RoleAidWorker,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	u.logger.Info("ユーザーを登録しました", zap.Int64("user_id", user.ID))
	return user, nil
}

func (u *userUseCaseImpl) Invite(ctx context.Context, req *model.UserInvite) (*model.User, error) {
	if _, err := u.organizations.GetByID(ctx, req.Organization); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Detail(model.ErrBadRequest, "No such organization.")
		}
		return nil, err
	}
	return u.invite(ctx, req.Email, req.Organization, model.RoleAidWorker)
}

func (u *userUseCaseImpl) InviteLeader(ctx context.Context, email string, organizationID int64) (*model.User, error) {
	return u.invite(ctx, email, organizationID, model.RoleOrganizationalLeader)
}

// invite 招待ユーザーを作成して登録リンクを送る
func (u *userUseCaseImpl) invite(ctx context.Context, rawEmail string, orgID int64, role string) (*model.User, error) {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if err := u.ensureAbsent(ctx, email); err != nil {
		return nil, err
	}
	token, err := auth.GenerateURLSafeToken(urlTokenBytes)
	if err != nil {
		return nil, err
	}
	expires := u.now().Add(u.tokenExpire)
	org := orgID

	user := &model.User{
		Email:                    email,
		OrganizationID:           &org,
		IsActive:                 false,
		Role:                     role,
		RegistrationToken:        &token,
		RegistrationTokenExpires: &expires,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/registration/?access_token=%s", u.domain, token)
	if err := u.mailer.SendInvite(ctx, email, link); err != nil {
		u.logger.Warn("招待メールの送信失敗", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	u.logger.Info("ユーザーを招待しました", zap.Int64("user_id", user.ID), zap.Int64("organization_id", orgID), zap.String("role", role))
	return user, nil
}

func (u *userUseCaseImpl) VerifyInvite(ctx context.Context, token string) (*model.User, error) {
	user, err := u.validInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.Detail(model.ErrBadRequest, "Token is either not valid or expired.")
	}
	return user, nil
}

// validInvite 有効な招待トークンの持ち主。無効ならnil
func (u *userUseCaseImpl) validInvite(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := u.users.GetByRegistrationToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.RegistrationTokenExpires == nil || u.now().After(*user.RegistrationTokenExpires) {
		return nil, nil
	}
	return user, nil
}

func (u *userUseCaseImpl) ConfirmRegistration(ctx context.Context, token string, req *model.UserCreate) (*model.User, error) {
	user, err := u.validInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.Detail(model.ErrBadRequest, "Cannot create a new user. Please ask for invite link once more")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user.Username = req.Username
	user.FullName = req.FullName
	user.HashedPassword = hashed
	user.IsActive = true
	user.EmailConfirmed = true
	user.RegistrationToken = nil
	user.RegistrationTokenExpires = nil
	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUseCaseImpl) UpdateInfo(ctx context.Context, current *model.User, req *model.UserBase) (*model.User, error) {
	user := *current
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		if email != current.Email {
			if err := u.ensureAbsent(ctx, email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if err := u.users.Update(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userUseCaseImpl) ChangePassword(ctx context.Context, current *model.User, req *model.UserPasswordUpdate) (*model.User, error) {
	if !auth.CheckPassword(current.HashedPassword, req.OldPassword) {
		return nil, model.Detail(model.ErrBadRequest, "The provided password was incorrect.")
	}
	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	user := *current
	user.HashedPassword = hashed
	if err := u.users.Update(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userUseCaseImpl) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := u.users.GetByEmail(ctx, emailx.Normalize(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.Detail(model.ErrBadRequest, "No such user.")
		}
		return "", err
	}

	token, err := auth.GenerateURLSafeToken(urlTokenBytes)
	if err != nil {
		return "", err
	}
	expires := u.now().Add(u.tokenExpire)
	user.PasswordRenewalToken = &token
	user.PasswordRenewalTokenExpires = &expires
	if err := u.users.Update(ctx, user); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/password-reset/?access_token=%s", u.domain, token)
	if err := u.mailer.SendPasswordRenewal(ctx, user.Email, link); err != nil {
		u.logger.Warn("パスワード再設定メールの送信失敗", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return token, nil
}

func (u *userUseCaseImpl) ConfirmPasswordReset(ctx context.Context, req *model.UserPasswordRenewal) error {
	invalid := model.Detail(model.ErrBadRequest, "The token is either not valid or expired")

	user, err := u.users.GetByRenewalToken(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return invalid
		}
		return err
	}
	if user.PasswordRenewalTokenExpires == nil || u.now().After(*user.PasswordRenewalTokenExpires) {
		return invalid
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	user.PasswordRenewalToken = nil
	user.PasswordRenewalTokenExpires = nil
	return u.users.Update(ctx, user)
}

// ToggleActivity 有効・無効を切り替え、そのユーザーの変更履歴の表示も合わせる
func (u *userUseCaseImpl) ToggleActivity(ctx context.Context, current *model.User, userID int64) (*model.User, error) {
	var user *model.User
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = u.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !current.IsAdmin() && !current.SameOrganization(user.OrganizationID) {
			return model.Detail(model.ErrForbidden, "Not allowed")
		}

		user.IsActive = !user.IsActive
		if err := u.users.Update(ctx, user); err != nil {
			return err
		}
		if _, err := u.changelogs.SetVisibilityByUser(ctx, user.ID, user.IsActive); err != nil {
			return err
		}

		verb := "blocked"
		if user.IsActive {
			verb = "unblocked"
		}
		actor := current.ID
		return u.activity.Create(ctx, &model.ActivityLog{
			IsActive:       true,
			ActionType:     model.ActivityUserActivityToggled,
			UserID:         &actor,
			OrganizationID: user.OrganizationID,
			Description:    fmt.Sprintf("%s was %s by %s", user.Email, verb, current.Email),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUseCaseImpl) ChangeRole(ctx context.Context, current *model.User, userID, roleID int64) (*model.User, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	newRole, err := u.oauth.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Detail(model.ErrBadRequest, "Bad params")
		}
		return nil, err
	}
	userRole, err := u.oauth.GetRoleByName(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	currentRole, err := u.oauth.GetRoleByName(ctx, current.Role)
	if err != nil {
		return nil, err
	}
	if newRole.Authority > currentRole.Authority || userRole.Authority > currentRole.Authority {
		return nil, model.Detail(model.ErrForbidden, "Not allowed")
	}

	user.Role = newRole.VerboseName
	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	u.logger.Info("ロールを変更しました",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role),
		zap.Int64("changed_by", current.ID),
	)
	return user, nil
}

func (u *userUseCaseImpl) DeleteMe(ctx context.Context, current *model.User) error {
	return u.users.Delete(ctx, current.ID)
}
