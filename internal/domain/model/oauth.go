package model

// OauthScope 権限スコープ（"locations:view" など）
type OauthScope struct {
	ID        int64  `json:"id"`
	Module    string `json:"module"`
	Scope     string `json:"scope"`
	IsDefault bool   `json:"is_default"`
}

// OauthRole スコープの集合としてのロール
// Authorityが大きいほど強い権限を持つ
type OauthRole struct {
	ID          int64        `json:"id"`
	VerboseName string       `json:"verbose_name"`
	Authority   int          `json:"authority"`
	Scopes      []OauthScope `json:"scopes"`
}

// OauthRoleCreate ロールの作成・更新リクエスト
type OauthRoleCreate struct {
	VerboseName string  `json:"verbose_name" binding:"required"`
	Authority   int     `json:"authority"`
	ScopeIDs    []int64 `json:"scope_ids"`
}

// DefaultScopes 初期登録するスコープ
var DefaultScopes = []string{
	"users:me",
	"users:create",
	"users:edit",
	"users:delete",
	"users:disable",
	"users:roles",
	"locations:view",
	"locations:create",
	"locations:edit",
	"locations:delete",
	"organizations:create",
	"organizations:view",
	"organizations:edit",
	"organizations:delete",
	"oauth:read",
	"oauth:create",
	"oauth:edit",
	"oauth:delete",
	"zones:create",
	"zones:edit",
	"zones:get",
	"changelogs:edit",
}

// AidWorkerScopes aid_workerロールの初期スコープ
var AidWorkerScopes = []string{
	"users:me",
	"users:edit",
	"locations:view",
	"locations:edit",
	"locations:create",
}

// OrganizationalLeaderScopes organizational_leaderロールの初期スコープ
var OrganizationalLeaderScopes = append(append([]string{}, AidWorkerScopes...),
	"users:create",
	"users:disable",
	"organizations:view",
	"organizations:edit",
	"changelogs:edit",
)
