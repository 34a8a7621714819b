package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LocationStatus 地点のレビュー状態
type LocationStatus int

const (
	StatusAwaitingReview   LocationStatus = 1
	StatusAwaitingApproval LocationStatus = 2
	StatusApproved         LocationStatus = 3
)

var statusNames = map[LocationStatus]string{
	StatusAwaitingReview:   "Awaiting review",
	StatusAwaitingApproval: "Awaiting approval",
	StatusApproved:         "Approved",
}

// Valid 定義済みのステータスかどうか
func (s LocationStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s LocationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("LocationStatus(%d)", int(s))
}

// LatLng 緯度経度を表す基本的な型
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid 緯度経度が有効範囲内かどうか
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ReportEntry 1カテゴリ分の報告
type ReportEntry struct {
	Flag        string   `json:"flag"`
	Description string   `json:"description"`
	Distance    *float64 `json:"distance,omitempty"` // 給油所・病院までの距離(km)
}

// Reports 地点の状況報告（6カテゴリ固定）
type Reports struct {
	BuildingCondition ReportEntry `json:"buildingCondition"`
	Electricity       ReportEntry `json:"electricity"`
	CarEntrance       ReportEntry `json:"carEntrance"`
	Water             ReportEntry `json:"water"`
	FuelStation       ReportEntry `json:"fuelStation"`
	Hospital          ReportEntry `json:"hospital"`
}

// Value JSONBカラムへの書き込み
func (r Reports) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan JSONBカラムからの読み込み
func (r *Reports) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		return nil
	default:
		return fmt.Errorf("reportsに変換できない型: %T", src)
	}
}

// Postcode 郵便番号。JSONでは数値・文字列どちらも受け付ける
type Postcode string

func (p *Postcode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Postcode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("郵便番号の形式が不正: %s", string(data))
	}
	*p = Postcode(n.String())
	return nil
}

// Location 状況報告の対象となる地点
type Location struct {
	ID               int64          `json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Address          string         `json:"address,omitempty"`
	StreetNumber     string         `json:"street_number,omitempty"`
	City             string         `json:"city,omitempty"`
	Country          string         `json:"country,omitempty"`
	Index            string         `json:"index,omitempty"` // 郵便番号
	Status           LocationStatus `json:"status"`
	Position         LatLng         `json:"position"`
	Distance         *float64       `json:"distance"`
	ReportedBy       *int64         `json:"reported_by"`
	OrganizationName *string        `json:"organization_name"`
	ReportExpires    *time.Time     `json:"report_expires"`
	RequestedBy      *int64         `json:"requested_by,omitempty"`
	Reports          *Reports       `json:"reports"`
}

// Address 逆ジオコーディングで得られる住所
type Address struct {
	Address      string `json:"address"`
	StreetNumber string `json:"street_number"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Index        string `json:"index"`
}

// LocationCreate 認証ユーザーによる地点の直接登録
type LocationCreate struct {
	Lat          float64  `json:"lat" binding:"min=-90,max=90"`
	Lng          float64  `json:"lng" binding:"min=-180,max=180"`
	StreetNumber string   `json:"street_number" binding:"required"`
	Address      string   `json:"address" binding:"required"`
	City         string   `json:"city" binding:"required"`
	Country      string   `json:"country" binding:"required"`
	Index        Postcode `json:"index" binding:"required"`
	Reports      Reports  `json:"reports"`
}

// LocationReports 割り当てられた地点への報告
type LocationReports struct {
	LocationID   int64     `json:"location_id" binding:"required"`
	StreetNumber *string   `json:"street_number"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	Index        *Postcode `json:"index"`
	Reports      Reports   `json:"reports"`
}

// PendingLocationSearch 未処理地点一覧の検索条件
type PendingLocationSearch struct {
	Page    int      `form:"page"`
	Limit   int      `form:"limit"`
	UserLat *float64 `form:"user_lat"`
	UserLng *float64 `form:"user_lng"`
}

// SubmissionOutcome 地点登録の結果種別
type SubmissionOutcome int

const (
	SubmissionCreated SubmissionOutcome = iota + 1
	SubmissionAlreadyExists
	SubmissionRejected
)

// SubmissionResult 地点登録の結果
type SubmissionResult struct {
	Outcome  SubmissionOutcome
	Location *Location
	Reason   string
}
