package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("OTP_EXPIRE_MINUTES", "7")
	t.Setenv("EMAILS_ENABLED", "true")
	t.Setenv("ENV_TYPE", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*time.Minute, cfg.OTP.Expire)
	assert.True(t, cfg.Mail.Enabled)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("explicit url wins", func(t *testing.T) {
		dsn, err := DatabaseConfig{URL: "postgres://u:p@h/db", SupabaseURL: "https://x.supabase.co"}.DSN()
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@h/db", dsn)
	})

	t.Run("supabase host", func(t *testing.T) {
		dsn, err := DatabaseConfig{SupabaseURL: "https://abc.supabase.co", SupabasePassword: "pw"}.DSN()
		require.NoError(t, err)
		assert.Contains(t, dsn, "host=db.abc.supabase.co port=6543")
		assert.Contains(t, dsn, "sslmode=require")
	})

	t.Run("supabase without password", func(t *testing.T) {
		_, err := DatabaseConfig{SupabaseURL: "https://abc.supabase.co"}.DSN()
		assert.Error(t, err)
	})

	t.Run("discrete fields", func(t *testing.T) {
		dsn, err := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"}.DSN()
		require.NoError(t, err)
		assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", dsn)
	})
}
