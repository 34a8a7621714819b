package model

import (
	"encoding/json"
	"time"
)

// 変更履歴の操作種別
const (
	ChangeLogActionReport = 1
)

// ChangeLog 地点の報告内容の変更履歴（追記のみ）
type ChangeLog struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	SubmittedBy *int64          `json:"submitted_by"`
	LocationID  int64           `json:"location_id"`
	ActionType  int             `json:"action_type"`
	OldFlags    json.RawMessage `json:"old_flags"`
	NewFlags    json.RawMessage `json:"new_flags"`
	IsVisible   bool            `json:"is_visible"`
}
