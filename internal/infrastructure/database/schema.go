package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// 初回起動時に必要なテーブルとインデックスを作成する
// IF NOT EXISTS で既存構造とは衝突させない
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		name TEXT NOT NULL UNIQUE,
		website TEXT,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_roles (
		id SERIAL PRIMARY KEY,
		verbose_name TEXT NOT NULL UNIQUE,
		authority INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_scopes (
		id SERIAL PRIMARY KEY,
		module TEXT NOT NULL,
		scope TEXT NOT NULL UNIQUE,
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS role_scopes (
		role_id INT NOT NULL REFERENCES oauth_roles(id) ON DELETE CASCADE,
		scope_id INT NOT NULL REFERENCES oauth_scopes(id) ON DELETE CASCADE,
		PRIMARY KEY (role_id, scope_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_activity TIMESTAMPTZ,
		username TEXT,
		full_name TEXT,
		email TEXT NOT NULL UNIQUE,
		organization_id INT REFERENCES organizations(id) ON DELETE SET NULL,
		hashed_password TEXT,
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		role TEXT NOT NULL,
		registration_token TEXT,
		registration_token_expires TIMESTAMPTZ,
		password_renewal_token TEXT,
		password_renewal_token_expires TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_full_name ON users(full_name)`,
	`CREATE TABLE IF NOT EXISTS guest_users (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		phone_number TEXT NOT NULL UNIQUE,
		last_request TIMESTAMPTZ,
		total_otp_requests INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		requested_by INT REFERENCES guest_users(id) ON DELETE SET NULL,
		report_expires TIMESTAMPTZ,
		reported_by INT REFERENCES users(id) ON DELETE SET NULL,
		status INT NOT NULL DEFAULT 1,
		address TEXT,
		street_number TEXT,
		city TEXT,
		country TEXT,
		postcode TEXT,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		reports JSONB
	)`,
	// 同一座標の地点は1件のみ
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_locations_coordinates ON locations(lat, lng)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_status_created ON locations(status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS geospatial_index (
		id SERIAL PRIMARY KEY,
		location_id INT NOT NULL UNIQUE REFERENCES locations(id) ON DELETE CASCADE,
		geohash TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		status INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_geospatial_index_geohash ON geospatial_index(geohash text_pattern_ops)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		zone_type INT NOT NULL,
		bounding_box TEXT NOT NULL,
		verbose_name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS changelogs (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		submitted_by INT REFERENCES users(id) ON DELETE SET NULL,
		location_id INT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		action_type INT NOT NULL,
		old_flags JSONB,
		new_flags JSONB,
		is_visible BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_changelogs_location ON changelogs(location_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		action_type INT NOT NULL,
		user_id INT REFERENCES users(id) ON DELETE SET NULL,
		organization_id INT REFERENCES organizations(id) ON DELETE SET NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS phone_codes (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		country_code TEXT NOT NULL UNIQUE,
		verbose_name TEXT NOT NULL,
		phone_code TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS session_history (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_id TEXT NOT NULL UNIQUE,
		user_agent TEXT,
		user_ip TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}

// EnsureSchema テーブルとインデックスを作成
func (pc *PostgreSQLClient) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := pc.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマ作成失敗 (statement %d): %w", i, err)
		}
	}
	if pc.logger != nil {
		pc.logger.Info("スキーマ作成完了", zap.Int("statements", len(schemaStatements)))
	}
	return nil
}
