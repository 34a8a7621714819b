package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/metrics"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// ZoneChecker は座標が制限区域に含まれるかを判定する
// 区域の読み込み・解析に失敗した場合は常に「含まれる」と判定する（fail closed）
type ZoneChecker interface {
	Intersects(ctx context.Context, lng, lat float64) bool
	// Invalidate は区域の作成・削除後に呼び出し、キャッシュを破棄する
	Invalidate()
}

// zoneCacheTTL 他のレプリカで行われた区域の変更もこの間隔で反映される
const zoneCacheTTL = time.Minute

type zoneChecker struct {
	repo   repository.ZoneRepository
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	geoms    []zoneGeometry
	loaded   bool
	loadedAt time.Time
}

type zoneGeometry struct {
	id   int64
	name string
	geom orb.Geometry
}

func NewZoneChecker(repo repository.ZoneRepository, logger *zap.Logger) ZoneChecker {
	return &zoneChecker{repo: repo, logger: logger, ttl: zoneCacheTTL, now: time.Now}
}

// Intersects は最初に一致した区域でtrueを返す
func (z *zoneChecker) Intersects(ctx context.Context, lng, lat float64) (restricted bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ZoneCheckFailuresTotal.Inc()
			z.logger.Error("制限区域の判定中にpanic、登録を拒否します", zap.Any("panic", r))
			restricted = true
		}
	}()

	geoms, err := z.geometries(ctx)
	if err != nil {
		metrics.ZoneCheckFailuresTotal.Inc()
		z.logger.Error("制限区域の読み込みに失敗、登録を拒否します", zap.Error(err))
		return true
	}

	pt := orb.Point{lng, lat}
	for _, g := range geoms {
		in, err := contains(g.geom, pt)
		if err != nil {
			metrics.ZoneCheckFailuresTotal.Inc()
			z.logger.Error("制限区域の判定に失敗、登録を拒否します",
				zap.Int64("zone_id", g.id),
				zap.String("zone", g.name),
				zap.Error(err),
			)
			return true
		}
		if in {
			z.logger.Debug("制限区域内の座標",
				zap.String("zone", g.name),
				zap.Float64("lat", lat),
				zap.Float64("lng", lng),
			)
			return true
		}
	}
	return false
}

func (z *zoneChecker) Invalidate() {
	z.mu.Lock()
	z.geoms = nil
	z.loaded = false
	z.mu.Unlock()
}

func (z *zoneChecker) fresh() bool {
	return z.loaded && z.now().Sub(z.loadedAt) < z.ttl
}

// geometries は解析済みの区域を返す。失敗時はキャッシュしない
func (z *zoneChecker) geometries(ctx context.Context) ([]zoneGeometry, error) {
	z.mu.RLock()
	if z.fresh() {
		geoms := z.geoms
		z.mu.RUnlock()
		return geoms, nil
	}
	z.mu.RUnlock()

	z.mu.Lock()
	defer z.mu.Unlock()
	if z.fresh() {
		return z.geoms, nil
	}

	zones, err := z.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("制限区域の取得失敗: %w", err)
	}

	geoms := make([]zoneGeometry, 0, len(zones))
	for _, zone := range zones {
		geom, err := wkt.Unmarshal(zone.BoundingBox)
		if err != nil {
			return nil, fmt.Errorf("区域 %q のWKT解析失敗: %w", zone.VerboseName, err)
		}
		if err := validate(geom); err != nil {
			return nil, fmt.Errorf("区域 %q の形状が不正: %w", zone.VerboseName, err)
		}
		geoms = append(geoms, zoneGeometry{id: zone.ID, name: zone.VerboseName, geom: geom})
	}

	z.geoms = geoms
	z.loaded = true
	z.loadedAt = z.now()
	metrics.ZoneCacheLoadsTotal.Inc()
	return geoms, nil
}

// validate 判定できる形状かを確認する。リングのないポリゴンや4点未満のリングは不正
func validate(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Polygon:
		return validatePolygon(g)
	case orb.MultiPolygon:
		if len(g) == 0 {
			return fmt.Errorf("空のMultiPolygon")
		}
		for _, p := range g {
			if err := validatePolygon(p); err != nil {
				return err
			}
		}
		return nil
	case orb.Bound:
		if g.Min[0] > g.Max[0] || g.Min[1] > g.Max[1] {
			return fmt.Errorf("不正なBound: %v", g)
		}
		return nil
	case orb.Collection:
		if len(g) == 0 {
			return fmt.Errorf("空のGeometryCollection")
		}
		for _, c := range g {
			if err := validate(c); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("形状がありません")
	default:
		return fmt.Errorf("未対応の形状: %s", g.GeoJSONType())
	}
}

func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return fmt.Errorf("リングのないポリゴン")
	}
	for i, r := range p {
		if len(r) < 4 {
			return fmt.Errorf("リング%dの点が%d個しかありません", i, len(r))
		}
	}
	return nil
}

// contains は境界上の点も含まれると判定する
func contains(g orb.Geometry, pt orb.Point) (bool, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt), nil
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt), nil
	case orb.Bound:
		return g.Contains(pt), nil
	case orb.Collection:
		for _, c := range g {
			in, err := contains(c, pt)
			if err != nil || in {
				return in, err
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("未対応の形状: %T", g)
	}
}
