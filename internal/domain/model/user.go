package model

import "time"

// ロール名
const (
	RoleAidWorker             = "aid_worker"
	RoleOrganizationalLeader  = "organizational_leader"
	RolePlatformAdministrator = "platform_administrator"
)

// User 登録ユーザー
type User struct {
	ID                          int64                `json:"id"`
	CreatedAt                   time.Time            `json:"created_at"`
	LastActivity                *time.Time           `json:"last_activity"`
	Username                    string               `json:"username,omitempty"`
	FullName                    string               `json:"full_name,omitempty"`
	Email                       string               `json:"email"`
	OrganizationID              *int64               `json:"organization"`
	Organization                *OrganizationSummary `json:"organization_model,omitempty"`
	HashedPassword              string               `json:"-"`
	EmailConfirmed              bool                 `json:"email_confirmed"`
	IsActive                    bool                 `json:"is_active"`
	Role                        string               `json:"role"`
	RegistrationToken           *string              `json:"registration_token,omitempty"`
	RegistrationTokenExpires    *time.Time           `json:"-"`
	PasswordRenewalToken        *string              `json:"-"`
	PasswordRenewalTokenExpires *time.Time           `json:"-"`
}

// IsAdmin プラットフォーム管理者かどうか
func (u *User) IsAdmin() bool {
	return u.Role == RolePlatformAdministrator
}

// SameOrganization 同じ組織に所属しているかどうか
func (u *User) SameOrganization(orgID *int64) bool {
	if u.OrganizationID == nil || orgID == nil {
		return u.OrganizationID == nil && orgID == nil
	}
	return *u.OrganizationID == *orgID
}

// UserBase 更新可能なプロフィール項目
type UserBase struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

// UserCreate ユーザー作成・招待承認のリクエスト
type UserCreate struct {
	Username     string `json:"username"`
	Email        string `json:"email" binding:"required"`
	FullName     string `json:"full_name"`
	Organization *int64 `json:"organization"`
	Password     string `json:"password" binding:"required"`
}

// UserInvite 招待リクエスト
type UserInvite struct {
	Email        string `json:"email" binding:"required"`
	Organization int64  `json:"organization" binding:"required"`
}

// UserPasswordUpdate パスワード変更
type UserPasswordUpdate struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserPasswordRenewal パスワード再設定の確定
type UserPasswordRenewal struct {
	AccessToken string `json:"access_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AccessToken ログイン成功時のレスポンス
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
