package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"Aidmap-App/internal/config"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/infrastructure/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// NominatimClient OpenStreetMap Nominatim APIのクライアント
type NominatimClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewNominatimClient Nominatimクライアントを作成
func NewNominatimClient(cfg config.GeocoderConfig, logger *zap.Logger) *NominatimClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &NominatimClient{httpClient: client, logger: logger}
}

type reverseResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

type searchResult struct {
	Lat     string          `json:"lat"`
	Lon     string          `json:"lon"`
	GeoJSON json.RawMessage `json:"geojson"`
}

// Reverse 座標から住所を取得する
// 地方では番地や通りが欠けることがあり、その場合は空文字のまま返す
func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (*model.Address, error) {
	var out reverseResponse
	err := c.call(ctx, "reverse", &out, "/reverse", map[string]string{
		"format": "jsonv2",
		"lat":    strconv.FormatFloat(lat, 'f', -1, 64),
		"lon":    strconv.FormatFloat(lng, 'f', -1, 64),
	})
	if err != nil {
		return nil, err
	}
	if out.Error != "" || len(out.Address) == 0 {
		return nil, fmt.Errorf("住所が見つかりません (%f, %f): %w", lat, lng, model.ErrNotFound)
	}
	return addressFromOSM(out.Address), nil
}

func addressFromOSM(a map[string]string) *model.Address {
	city := a["city"]
	if city == "" {
		city = a["town"]
	}
	if city == "" {
		city = a["village"]
	}
	return &model.Address{
		Address:      a["road"],
		StreetNumber: a["house_number"],
		City:         city,
		Country:      a["country"],
		Index:        a["postcode"],
	}
}

// Geocode 住所文字列と都市名から座標を取得する
func (c *NominatimClient) Geocode(ctx context.Context, address, city string) (*model.LatLng, error) {
	var results []searchResult
	err := c.call(ctx, "geocode", &results, "/search", map[string]string{
		"format": "jsonv2",
		"street": address,
		"city":   city,
		"limit":  "1",
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("座標が見つかりません (%s, %s): %w", address, city, model.ErrNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("緯度の解析失敗: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("経度の解析失敗: %w", err)
	}
	return &model.LatLng{Lat: lat, Lng: lng}, nil
}

// BoundaryByName 地域名から境界ポリゴンを取得する（制限区域の登録用）
func (c *NominatimClient) BoundaryByName(ctx context.Context, name string) (orb.Geometry, error) {
	var results []searchResult
	err := c.call(ctx, "boundary", &results, "/search", map[string]string{
		"format":          "json",
		"q":               name,
		"polygon_geojson": "1",
		"limit":           "1",
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || len(results[0].GeoJSON) == 0 {
		return nil, fmt.Errorf("境界が見つかりません (%s): %w", name, model.ErrNotFound)
	}

	g, err := geojson.UnmarshalGeometry(results[0].GeoJSON)
	if err != nil {
		return nil, fmt.Errorf("境界GeoJSONの解析失敗: %w", err)
	}
	switch geom := g.Geometry().(type) {
	case orb.Polygon, orb.MultiPolygon:
		return geom, nil
	default:
		return nil, fmt.Errorf("%s の境界がポリゴンではありません (%s): %w", name, geom.GeoJSONType(), model.ErrBadRequest)
	}
}

func (c *NominatimClient) call(ctx context.Context, op string, result any, path string, params map[string]string) error {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	metrics.GeocoderDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.GeocoderRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Error("Nominatim API呼び出し失敗", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("ジオコーディングサービスに接続できません: %w", model.ErrUnavailable)
	}
	if resp.IsError() {
		metrics.GeocoderRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Error("Nominatim APIがエラーを返しました",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("ジオコーディングサービスのエラー (status: %d): %w", resp.StatusCode(), model.ErrUnavailable)
	}
	metrics.GeocoderRequestsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}
