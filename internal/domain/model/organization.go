package model

import "time"

// Organization 支援団体
type Organization struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Name         string    `json:"name"`
	Website      string    `json:"website,omitempty"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	Participants []User    `json:"participants"`
}

// OrganizationSummary ユーザー情報に埋め込む組織の要約
type OrganizationSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OrganizationBase 組織の作成・編集リクエスト
type OrganizationBase struct {
	Name        string  `json:"name" binding:"required"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
}

// OrganizationLeaderInvite 組織作成とリーダー招待
type OrganizationLeaderInvite struct {
	OrganizationBase
	Emails []string `json:"emails"`
}

// OrganizationUserInvite 既存ユーザーの組織への追加
type OrganizationUserInvite struct {
	Emails []string `json:"emails" binding:"required"`
}
