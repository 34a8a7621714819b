package auth

import (
	"testing"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	issued, err := m.Issue(42, []string{"users:me", "locations:view"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := m.Parse(issued.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.True(t, claims.HasScope("locations:view"))
	assert.False(t, claims.HasScope("users:delete"))
}

func TestTokenManager_Parse_WrongSecret(t *testing.T) {
	issued, err := NewTokenManager("secret", time.Hour).Issue(1, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(issued.AccessToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	issued, err := m.Issue(1, nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(issued.AccessToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestTokenManager_Parse_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hashed)
	assert.True(t, CheckPassword(hashed, "s3cret!"))
	assert.False(t, CheckPassword(hashed, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!"))
}

func TestGenerateURLSafeToken(t *testing.T) {
	a, err := GenerateURLSafeToken(32)
	require.NoError(t, err)
	b, err := GenerateURLSafeToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestScopeRegistry(t *testing.T) {
	reg := NewScopeRegistry()
	err := reg.Load([]model.OauthRole{
		{VerboseName: model.RoleAidWorker, Scopes: []model.OauthScope{{Scope: "users:me"}, {Scope: "locations:view"}}},
		{VerboseName: model.RolePlatformAdministrator, Scopes: []model.OauthScope{{Scope: "users:me"}, {Scope: "locations:view"}, {Scope: "zones:create"}}},
	})
	require.NoError(t, err)

	assert.True(t, reg.Granted(model.RoleAidWorker, "users:me", "locations:view"))
	assert.False(t, reg.Granted(model.RoleAidWorker, "zones:create"))
	assert.True(t, reg.Granted(model.RolePlatformAdministrator, "zones:create"))
	assert.False(t, reg.Granted("unknown", "users:me"))
	assert.False(t, reg.Granted(model.RoleAidWorker, "no:such:scope"))

	// 差し替え後は古い付与が消える
	require.NoError(t, reg.Load([]model.OauthRole{{VerboseName: model.RoleAidWorker}}))
	assert.False(t, reg.Granted(model.RoleAidWorker, "users:me"))
}
