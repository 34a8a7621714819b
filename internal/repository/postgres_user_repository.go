package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"
)

type PostgresUserRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresUserRepository(client *database.PostgreSQLClient) repository.UserRepository {
	return &PostgresUserRepository{client: client}
}

const userSelect = `SELECT u.id, u.created_at, u.last_activity, u.username, u.full_name, u.email, u.organization_id,
	u.hashed_password, u.email_confirmed, u.is_active, u.role, u.registration_token, u.registration_token_expires,
	u.password_renewal_token, u.password_renewal_token_expires, o.name
	FROM users u
	LEFT JOIN organizations o ON o.id = u.organization_id`

// UserResult userSelectの結果を受け取るための構造体
type UserResult struct {
	ID                          int64
	CreatedAt                   time.Time
	LastActivity                sql.NullTime
	Username                    sql.NullString
	FullName                    sql.NullString
	Email                       string
	OrganizationID              sql.NullInt64
	HashedPassword              sql.NullString
	EmailConfirmed              bool
	IsActive                    bool
	Role                        string
	RegistrationToken           sql.NullString
	RegistrationTokenExpires    sql.NullTime
	PasswordRenewalToken        sql.NullString
	PasswordRenewalTokenExpires sql.NullTime
	OrganizationName            sql.NullString
}

func (ur *UserResult) scanArgs() []any {
	return []any{
		&ur.ID, &ur.CreatedAt, &ur.LastActivity, &ur.Username, &ur.FullName, &ur.Email, &ur.OrganizationID,
		&ur.HashedPassword, &ur.EmailConfirmed, &ur.IsActive, &ur.Role, &ur.RegistrationToken,
		&ur.RegistrationTokenExpires, &ur.PasswordRenewalToken, &ur.PasswordRenewalTokenExpires,
		&ur.OrganizationName,
	}
}

// ToUser UserResultをmodel.Userに変換
func (ur *UserResult) ToUser() *model.User {
	u := &model.User{
		ID:                          ur.ID,
		CreatedAt:                   ur.CreatedAt,
		LastActivity:                nullTimePtr(ur.LastActivity),
		Username:                    ur.Username.String,
		FullName:                    ur.FullName.String,
		Email:                       ur.Email,
		OrganizationID:              nullInt64Ptr(ur.OrganizationID),
		HashedPassword:              ur.HashedPassword.String,
		EmailConfirmed:              ur.EmailConfirmed,
		IsActive:                    ur.IsActive,
		Role:                        ur.Role,
		RegistrationToken:           nullStringPtr(ur.RegistrationToken),
		RegistrationTokenExpires:    nullTimePtr(ur.RegistrationTokenExpires),
		PasswordRenewalToken:        nullStringPtr(ur.PasswordRenewalToken),
		PasswordRenewalTokenExpires: nullTimePtr(ur.PasswordRenewalTokenExpires),
	}
	if ur.OrganizationID.Valid && ur.OrganizationName.Valid {
		u.Organization = &model.OrganizationSummary{ID: ur.OrganizationID.Int64, Name: ur.OrganizationName.String}
	}
	return u
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (username, full_name, email, organization_id, hashed_password, email_confirmed,
		is_active, role, registration_token, registration_token_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		nullString(u.Username), nullString(u.FullName), u.Email, u.OrganizationID, nullString(u.HashedPassword),
		u.EmailConfirmed, u.IsActive, u.Role, u.RegistrationToken, u.RegistrationTokenExpires,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("ユーザーの作成失敗: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var result UserResult
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, userSelect+` WHERE `+where, arg).Scan(result.scanArgs()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("ユーザーデータの取得失敗: %w", err)
	}
	return result.ToUser(), nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `u.email = $1`, email)
}

func (r *PostgresUserRepository) GetByRegistrationToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `u.registration_token = $1`, token)
}

func (r *PostgresUserRepository) GetByRenewalToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `u.password_renewal_token = $1`, token)
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *model.User) error {
	query := `UPDATE users SET last_activity = $1, username = $2, full_name = $3, email = $4, organization_id = $5,
		hashed_password = $6, email_confirmed = $7, is_active = $8, role = $9, registration_token = $10,
		registration_token_expires = $11, password_renewal_token = $12, password_renewal_token_expires = $13
		WHERE id = $14`

	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, query,
		u.LastActivity, nullString(u.Username), nullString(u.FullName), u.Email, u.OrganizationID,
		nullString(u.HashedPassword), u.EmailConfirmed, u.IsActive, u.Role, u.RegistrationToken,
		u.RegistrationTokenExpires, u.PasswordRenewalToken, u.PasswordRenewalTokenExpires, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("ユーザー %d の更新失敗: %w", u.ID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除失敗: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) TouchActivity(ctx context.Context, id int64, at time.Time) error {
	_, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE users SET last_activity = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("最終アクティビティの更新失敗: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) ListByOrganization(ctx context.Context, organizationID int64) ([]model.User, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx,
		userSelect+` WHERE u.organization_id = $1 ORDER BY u.id`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("組織メンバーの取得失敗: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var result UserResult
		if err := rows.Scan(result.scanArgs()...); err != nil {
			return nil, fmt.Errorf("ユーザーデータスキャンエラー: %w", err)
		}
		users = append(users, *result.ToUser())
	}
	return users, rows.Err()
}
