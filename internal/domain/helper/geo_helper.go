package helper

import (
	"Aidmap-App/internal/domain/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
)

// LatLngToPoint model.LatLng を orb.Point に変換（経度, 緯度の順）
func LatLngToPoint(p model.LatLng) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// PointToLatLng orb.Point を model.LatLng に変換
func PointToLatLng(p orb.Point) model.LatLng {
	return model.LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// DistanceKm 2点間の大円距離(km)
func DistanceKm(a, b model.LatLng) float64 {
	return geo.Distance(LatLngToPoint(a), LatLngToPoint(b)) / 1000
}

// GeometryToWKT 制限区域の保存形式に変換
func GeometryToWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// WithDistance ユーザー位置が指定されていれば各地点に距離を設定する
func WithDistance(locations []model.Location, userLat, userLng *float64) []model.Location {
	if userLat == nil || userLng == nil {
		return locations
	}
	user := model.LatLng{Lat: *userLat, Lng: *userLng}
	for i := range locations {
		d := DistanceKm(user, locations[i].Position)
		locations[i].Distance = &d
	}
	return locations
}
