package model

// GeoIndexEntry 地点の近傍検索用インデックス
// 1地点につき1件、geohashは(lat, lng)から決定的に求まる
type GeoIndexEntry struct {
	ID         int64          `json:"id"`
	LocationID int64          `json:"location_id"`
	Geohash    string         `json:"geohash"`
	Position   LatLng         `json:"position"`
	Status     LocationStatus `json:"status"`
}
