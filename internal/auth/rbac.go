package auth

import (
	"sync"

	"Aidmap-App/internal/domain/model"

	"github.com/mikespook/gorbac"
)

// ScopeRegistry ロールごとの付与スコープを保持する
// ロール変更時はLoadで丸ごと差し替える
type ScopeRegistry struct {
	mu          sync.RWMutex
	rbac        *gorbac.RBAC
	permissions map[string]gorbac.Permission
}

func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{
		rbac:        gorbac.New(),
		permissions: make(map[string]gorbac.Permission),
	}
}

// Load ロール一覧からRBACを組み立て直す
func (r *ScopeRegistry) Load(roles []model.OauthRole) error {
	rbac := gorbac.New()
	permissions := make(map[string]gorbac.Permission)

	for _, role := range roles {
		stdRole := gorbac.NewStdRole(role.VerboseName)
		for _, s := range role.Scopes {
			p, ok := permissions[s.Scope]
			if !ok {
				p = gorbac.NewStdPermission(s.Scope)
				permissions[s.Scope] = p
			}
			if err := stdRole.Assign(p); err != nil {
				return err
			}
		}
		if err := rbac.Add(stdRole); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.rbac = rbac
	r.permissions = permissions
	r.mu.Unlock()
	return nil
}

// Granted ロールに全てのスコープが付与されているか
func (r *ScopeRegistry) Granted(role string, scopes ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, scope := range scopes {
		p, ok := r.permissions[scope]
		if !ok || !r.rbac.IsGranted(role, p, nil) {
			return false
		}
	}
	return true
}
