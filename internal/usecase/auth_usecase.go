package usecase

import (
	"context"
	"errors"
	"time"

	"Aidmap-App/internal/auth"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"go.uber.org/zap"
)

const (
	msgBadCredentials      = "Incorrect username or password"
	msgCouldNotValidate    = "Could not validate credentials"
	msgNotEnoughPermission = "Not enough permissions"
)

// ScopeMe 認証が必要な全エンドポイントで要求するスコープ
const ScopeMe = "users:me"

// LoginRequest ログイン情報と接続元
type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	UserIP    string
}

type AuthUseCase interface {
	Login(ctx context.Context, req *LoginRequest) (*model.AccessToken, error)
	// Authenticate トークンを検証し、ロールとトークンの両方に必要なスコープがあるか確認する
	Authenticate(ctx context.Context, token string, scopes ...string) (*model.User, error)
	Sessions(ctx context.Context, userID int64) ([]model.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID int64) error
}

type authUseCaseImpl struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	oauth    repository.OauthRepository
	tokens   *auth.TokenManager
	registry *auth.ScopeRegistry
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthUseCase(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	oauth repository.OauthRepository,
	tokens *auth.TokenManager,
	registry *auth.ScopeRegistry,
	logger *zap.Logger,
) AuthUseCase {
	return &authUseCaseImpl{
		users:    users,
		sessions: sessions,
		oauth:    oauth,
		tokens:   tokens,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *authUseCaseImpl) Login(ctx context.Context, req *LoginRequest) (*model.AccessToken, error) {
	user, err := u.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Detail(model.ErrBadRequest, msgBadCredentials)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.HashedPassword, req.Password) {
		return nil, model.Detail(model.ErrBadRequest, msgBadCredentials)
	}
	if !user.IsActive {
		return nil, model.Detail(model.ErrBadRequest, "Inactive user")
	}

	role, err := u.oauth.GetRoleByName(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	scopes := make([]string, 0, len(role.Scopes))
	for _, s := range role.Scopes {
		scopes = append(scopes, s.Scope)
	}

	issued, err := u.tokens.Issue(user.ID, scopes)
	if err != nil {
		return nil, err
	}
	err = u.sessions.Create(ctx, &model.Session{
		ExpiresAt: issued.ExpiresAt,
		UserID:    user.ID,
		TokenID:   issued.TokenID,
		UserAgent: req.UserAgent,
		UserIP:    req.UserIP,
		IsActive:  true,
	})
	if err != nil {
		return nil, err
	}
	if err := u.users.TouchActivity(ctx, user.ID, u.now()); err != nil {
		u.logger.Warn("最終アクティビティの更新失敗", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	u.logger.Info("ログインしました", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return &model.AccessToken{AccessToken: issued.AccessToken, TokenType: "Bearer"}, nil
}

func (u *authUseCaseImpl) Authenticate(ctx context.Context, token string, scopes ...string) (*model.User, error) {
	invalid := model.Detail(model.ErrInvalidToken, msgCouldNotValidate)

	claims, err := u.tokens.Parse(token)
	if err != nil {
		return nil, invalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, invalid
	}

	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	session, err := u.sessions.GetByTokenID(ctx, userID, claims.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !session.IsActive || !session.ExpiresAt.After(u.now()) {
		return nil, invalid
	}

	for _, scope := range append([]string{ScopeMe}, scopes...) {
		if !claims.HasScope(scope) || !u.registry.Granted(user.Role, scope) {
			return nil, model.Detail(model.ErrInvalidToken, msgNotEnoughPermission)
		}
	}
	if !user.IsActive {
		return nil, model.Detail(model.ErrBadRequest, "User is not active")
	}
	return user, nil
}

func (u *authUseCaseImpl) Sessions(ctx context.Context, userID int64) ([]model.Session, error) {
	return u.sessions.ListActive(ctx, userID)
}

func (u *authUseCaseImpl) RevokeSession(ctx context.Context, userID, sessionID int64) error {
	ok, err := u.sessions.Revoke(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}
