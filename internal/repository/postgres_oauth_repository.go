package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/database"

	"github.com/lib/pq"
)

type PostgresOauthRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresOauthRepository(client *database.PostgreSQLClient) repository.OauthRepository {
	return &PostgresOauthRepository{client: client}
}

func (r *PostgresOauthRepository) GetOrCreateScope(ctx context.Context, module, scope string) (*model.OauthScope, error) {
	// 既存の場合も DO UPDATE で行を返させる
	query := `INSERT INTO oauth_scopes (module, scope, is_default) VALUES ($1, $2, TRUE)
		ON CONFLICT (scope) DO UPDATE SET scope = EXCLUDED.scope
		RETURNING id, module, scope, is_default`

	var s model.OauthScope
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx, query, module, scope).
		Scan(&s.ID, &s.Module, &s.Scope, &s.IsDefault)
	if err != nil {
		return nil, fmt.Errorf("スコープ %s の作成失敗: %w", scope, err)
	}
	return &s, nil
}

func (r *PostgresOauthRepository) scanScopes(ctx context.Context, query string, args ...any) ([]model.OauthScope, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("スコープ一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	scopes := []model.OauthScope{}
	for rows.Next() {
		var s model.OauthScope
		if err := rows.Scan(&s.ID, &s.Module, &s.Scope, &s.IsDefault); err != nil {
			return nil, fmt.Errorf("スコープスキャンエラー: %w", err)
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}

func (r *PostgresOauthRepository) ListScopes(ctx context.Context) ([]model.OauthScope, error) {
	return r.scanScopes(ctx, `SELECT id, module, scope, is_default FROM oauth_scopes ORDER BY id`)
}

func (r *PostgresOauthRepository) GetScopesByIDs(ctx context.Context, ids []int64) ([]model.OauthScope, error) {
	return r.scanScopes(ctx, `SELECT id, module, scope, is_default FROM oauth_scopes
		WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

func (r *PostgresOauthRepository) GetScopesByNames(ctx context.Context, names []string) ([]model.OauthScope, error) {
	return r.scanScopes(ctx, `SELECT id, module, scope, is_default FROM oauth_scopes
		WHERE scope = ANY($1) ORDER BY id`, pq.Array(names))
}

func (r *PostgresOauthRepository) roleScopes(ctx context.Context, roleID int64) ([]model.OauthScope, error) {
	return r.scanScopes(ctx, `SELECT s.id, s.module, s.scope, s.is_default FROM oauth_scopes s
		JOIN role_scopes rs ON rs.scope_id = s.id WHERE rs.role_id = $1 ORDER BY s.id`, roleID)
}

func (r *PostgresOauthRepository) replaceRoleScopes(ctx context.Context, role *model.OauthRole) error {
	conn := database.Conn(ctx, r.client.DB)
	if _, err := conn.ExecContext(ctx, `DELETE FROM role_scopes WHERE role_id = $1`, role.ID); err != nil {
		return fmt.Errorf("ロールのスコープ削除失敗: %w", err)
	}
	ids := make([]int64, 0, len(role.Scopes))
	for _, s := range role.Scopes {
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := conn.ExecContext(ctx, `INSERT INTO role_scopes (role_id, scope_id)
		SELECT $1, UNNEST($2::int[]) ON CONFLICT DO NOTHING`, role.ID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("ロールのスコープ設定失敗: %w", err)
	}
	return nil
}

// CreateRole ロールとスコープの紐付けを作成（トランザクション内で呼び出すこと）
func (r *PostgresOauthRepository) CreateRole(ctx context.Context, role *model.OauthRole) error {
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`INSERT INTO oauth_roles (verbose_name, authority) VALUES ($1, $2) RETURNING id`,
		role.VerboseName, role.Authority,
	).Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("ロール %s の作成失敗: %w", role.VerboseName, err)
	}
	return r.replaceRoleScopes(ctx, role)
}

func (r *PostgresOauthRepository) getRole(ctx context.Context, where string, arg any) (*model.OauthRole, error) {
	var role model.OauthRole
	err := database.Conn(ctx, r.client.DB).QueryRowContext(ctx,
		`SELECT id, verbose_name, authority FROM oauth_roles WHERE `+where, arg,
	).Scan(&role.ID, &role.VerboseName, &role.Authority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("ロールの取得失敗: %w", err)
	}
	if role.Scopes, err = r.roleScopes(ctx, role.ID); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *PostgresOauthRepository) GetRoleByID(ctx context.Context, id int64) (*model.OauthRole, error) {
	return r.getRole(ctx, `id = $1`, id)
}

func (r *PostgresOauthRepository) GetRoleByName(ctx context.Context, name string) (*model.OauthRole, error) {
	return r.getRole(ctx, `verbose_name = $1`, name)
}

func (r *PostgresOauthRepository) ListRoles(ctx context.Context) ([]model.OauthRole, error) {
	rows, err := database.Conn(ctx, r.client.DB).QueryContext(ctx,
		`SELECT id, verbose_name, authority FROM oauth_roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ロール一覧の取得失敗: %w", err)
	}

	roles := []model.OauthRole{}
	for rows.Next() {
		var role model.OauthRole
		if err := rows.Scan(&role.ID, &role.VerboseName, &role.Authority); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ロールスキャンエラー: %w", err)
		}
		roles = append(roles, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 同一接続上で別クエリを流すため、rowsを閉じてから取得する
	for i := range roles {
		if roles[i].Scopes, err = r.roleScopes(ctx, roles[i].ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (r *PostgresOauthRepository) UpdateRole(ctx context.Context, role *model.OauthRole) error {
	res, err := database.Conn(ctx, r.client.DB).ExecContext(ctx,
		`UPDATE oauth_roles SET verbose_name = $1, authority = $2 WHERE id = $3`,
		role.VerboseName, role.Authority, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("ロール %d の更新失敗: %w", role.ID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return r.replaceRoleScopes(ctx, role)
}
