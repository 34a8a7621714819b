package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"

	"github.com/mmcloughlin/geohash"
)

const (
	// IndexPrecision は保存するgeohashの桁数
	IndexPrecision = 12
	// SearchPrecision は近傍検索で使う接頭辞の桁数（約1,250km x 625kmのセル）
	SearchPrecision = 2
)

// ProximityIndex は地点のgeohashインデックスを管理する
type ProximityIndex interface {
	Index(ctx context.Context, locationID int64, lat, lng float64, status model.LocationStatus) (*model.GeoIndexEntry, error)
	SearchNear(ctx context.Context, lat, lng float64) ([]model.GeoIndexEntry, error)
	FindByLocation(ctx context.Context, locationID int64) (*model.GeoIndexEntry, error)
	UpdateStatus(ctx context.Context, locationID int64, status model.LocationStatus) error
}

type proximityIndex struct {
	repo repository.GeoIndexRepository
}

func NewProximityIndex(repo repository.GeoIndexRepository) ProximityIndex {
	return &proximityIndex{repo: repo}
}

// Encode は(lat, lng)から保存用のgeohashを求める
func Encode(lat, lng float64) string {
	lat, lng = clampEdge(lat, lng)
	return geohash.EncodeWithPrecision(lat, lng, IndexPrecision)
}

// clampEdge lat=90, lng=180 はgeohashで反対側の端に折り返されるため、最後のセルに収める
func clampEdge(lat, lng float64) (float64, float64) {
	if lat >= 90 {
		lat = math.Nextafter(90, 0)
	}
	if lng >= 180 {
		lng = math.Nextafter(180, 0)
	}
	return lat, lng
}

// Index は地点に対応するインデックスを1件作成する
func (p *proximityIndex) Index(ctx context.Context, locationID int64, lat, lng float64, status model.LocationStatus) (*model.GeoIndexEntry, error) {
	entry := &model.GeoIndexEntry{
		LocationID: locationID,
		Geohash:    Encode(lat, lng),
		Position:   model.LatLng{Lat: lat, Lng: lng},
		Status:     status,
	}
	if err := p.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("インデックス作成失敗: %w", err)
	}
	return entry, nil
}

// SearchNear は同じ2桁セルに属する全インデックスを返す
// 半径指定やソートは行わず、セル境界をまたぐ近傍は取りこぼす
func (p *proximityIndex) SearchNear(ctx context.Context, lat, lng float64) ([]model.GeoIndexEntry, error) {
	lat, lng = clampEdge(lat, lng)
	prefix := geohash.EncodeWithPrecision(lat, lng, SearchPrecision)
	entries, err := p.repo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("近傍検索失敗: %w", err)
	}
	return entries, nil
}

// FindByLocation は存在しない場合 nil, nil を返す
func (p *proximityIndex) FindByLocation(ctx context.Context, locationID int64) (*model.GeoIndexEntry, error) {
	entry, err := p.repo.FindByLocationID(ctx, locationID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("インデックス取得失敗: %w", err)
	}
	return entry, nil
}

func (p *proximityIndex) UpdateStatus(ctx context.Context, locationID int64, status model.LocationStatus) error {
	if err := p.repo.UpdateStatus(ctx, locationID, status); err != nil {
		return fmt.Errorf("インデックスのステータス更新失敗: %w", err)
	}
	return nil
}
