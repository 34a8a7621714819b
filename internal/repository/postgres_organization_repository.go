package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"
)

type PostgresOrganizationRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresOrganizationRepository(client *database.PostgreSQLClient) repository.OrganizationRepository {
	return &PostgresOrganizationRepository{client: client}
}

const organizationColumns = `id, created_at, name, website, description, is_active`

func scanOrganization(scan func(dest ...any) error) (*model.Organization, error) {
	var o model.Organization
	var website, description sql.NullString
	if err := scan(&o.ID, &o.CreatedAt, &o.Name, &website, &description, &o.IsActive); err != nil {
		return nil, err
	}
	o.Website = website.String
	o.Description = description.String
	o.Participants = []model.User{}
	return &o, nil
}

func (r *PostgresOrganizationRepository) Create(ctx context.Context, o *model.Organization) error {
	query := `INSERT INTO organizations (name, website, description, is_active)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query,
		o.Name, nullString(o.Website), nullString(o.Description), o.IsActive,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("組織の作成失敗: %w", err)
	}
	return nil
}

func (r *PostgresOrganizationRepository) getOne(ctx context.Context, where string, arg any) (*model.Organization, error) {
	row := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE `+where, arg)
	o, err := scanOrganization(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("組織データの取得失敗: %w", err)
	}
	return o, nil
}

func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresOrganizationRepository) GetByName(ctx context.Context, name string) (*model.Organization, error) {
	return r.getOne(ctx, `name = $1`, name)
}

func (r *PostgresOrganizationRepository) list(ctx context.Context, query string, args ...any) ([]model.Organization, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("組織一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	orgs := []model.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("組織データスキャンエラー: %w", err)
		}
		orgs = append(orgs, *o)
	}
	return orgs, rows.Err()
}

func (r *PostgresOrganizationRepository) List(ctx context.Context, limit, offset int) ([]model.Organization, error) {
	return r.list(ctx, `SELECT `+organizationColumns+` FROM organizations
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

// SearchByPrefix 名前の前方一致（大文字小文字を区別しない）
func (r *PostgresOrganizationRepository) SearchByPrefix(ctx context.Context, prefix string) ([]model.Organization, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(prefix))
	return r.list(ctx, `SELECT `+organizationColumns+` FROM organizations
		WHERE LOWER(name) LIKE $1 ORDER BY name`, escaped+"%")
}

func (r *PostgresOrganizationRepository) Update(ctx context.Context, o *model.Organization) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE organizations SET name = $1, website = $2, description = $3, is_active = $4 WHERE id = $5`,
		o.Name, nullString(o.Website), nullString(o.Description), o.IsActive, o.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("組織 %d の更新失敗: %w", o.ID, err)
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

func (r *PostgresOrganizationRepository) Delete(ctx context.Context, id int64) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("組織の削除失敗: %w", err)
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
