package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims アクセストークンのペイロード
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// UserID subからユーザーIDを取り出す
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subが不正です: %w", model.ErrInvalidToken)
	}
	return id, nil
}

// HasScope トークンにスコープが含まれるか
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IssuedToken 発行したトークンとセッション記録用の情報
type IssuedToken struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}

// TokenManager HS256で署名したJWTの発行と検証
type TokenManager struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, expire time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expire: expire, now: time.Now}
}

// Issue ユーザーIDとスコープからトークンを発行する
func (m *TokenManager) Issue(userID int64, scopes []string) (*IssuedToken, error) {
	now := m.now()
	expiresAt := now.Add(m.expire)
	tokenID := uuid.New().String()

	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("トークンの署名失敗: %w", err)
	}
	return &IssuedToken{AccessToken: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// Parse 署名と有効期限を検証してClaimsを返す
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("トークンの有効期限切れ: %w", model.ErrInvalidToken)
		}
		return nil, fmt.Errorf("トークンの検証失敗: %v: %w", err, model.ErrInvalidToken)
	}
	if !parsed.Valid {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}
