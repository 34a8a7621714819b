package model

import "time"

// Zone 地点登録を禁止する区域
type Zone struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ZoneType    int       `json:"zone_type"`
	BoundingBox string    `json:"bounding_box"` // WKT
	VerboseName string    `json:"verbose_name"`
}

// ZoneCreate 区域名から制限区域を作成するリクエスト
type ZoneCreate struct {
	VerboseName string `json:"verbose_name" binding:"required"`
	ZoneType    int    `json:"zone_type"`
}
