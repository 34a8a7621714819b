package model

import "time"

// アクティビティログの操作種別
const (
	ActivityUserActivityToggled         = 4
	ActivityOrganizationActivityToggled = 5
)

// ActivityLog 組織内の管理操作の記録
type ActivityLog struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	IsActive       bool      `json:"is_active"`
	ActionType     int       `json:"action_type"`
	UserID         *int64    `json:"user_id"`
	OrganizationID *int64    `json:"organization_id"`
	Description    string    `json:"description"`
}

// PhoneCode 国別の電話番号プレフィックス
type PhoneCode struct {
	ID          int64  `json:"id"`
	CountryCode string `json:"country_code"`
	VerboseName string `json:"verbose_name"`
	PhoneCode   string `json:"phone_code"`
	IsActive    bool   `json:"is_active"`
}

// Session ログインセッション
type Session struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	TokenID   string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	UserIP    string    `json:"user_ip"`
	IsActive  bool      `json:"is_active"`
}

// BulkImportFailure 一括登録で処理できなかった行
type BulkImportFailure struct {
	Row    int    `json:"row"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// 一括登録の失敗コード
const (
	BulkSerializationError = "SERIALIZATION_ERROR"
	BulkGeocodingError     = "GEOCODING_ERROR"
	BulkDatabaseError      = "DATABASE_ERROR"
)

// BulkImportResult 一括登録の結果
type BulkImportResult struct {
	Added       []Location          `json:"added"`
	Unprocessed []BulkImportFailure `json:"unprocessed"`
}
