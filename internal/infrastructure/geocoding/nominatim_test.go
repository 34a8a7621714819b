package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Aidmap-App/internal/config"
	"Aidmap-App/internal/domain/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *NominatimClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNominatimClient(config.GeocoderConfig{
		BaseURL:   srv.URL,
		UserAgent: "GetLoc",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestNominatimClient_Reverse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "49.2363517942444", r.URL.Query().Get("lat"))
		assert.Equal(t, "GetLoc", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":{"house_number":"12","road":"Soborna","town":"Vinnytsia","country":"Ukraine","postcode":"21000"}}`))
	})

	addr, err := client.Reverse(context.Background(), 49.2363517942444, 28.46728473547444)
	require.NoError(t, err)
	assert.Equal(t, "12", addr.StreetNumber)
	assert.Equal(t, "Soborna", addr.Address)
	assert.Equal(t, "Vinnytsia", addr.City)
	assert.Equal(t, "Ukraine", addr.Country)
	assert.Equal(t, "21000", addr.Index)
}

func TestNominatimClient_Reverse_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := client.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNominatimClient_Reverse_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Reverse(context.Background(), 1, 1)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestNominatimClient_Geocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Soborna, 12", r.URL.Query().Get("street"))
		assert.Equal(t, "Vinnytsia", r.URL.Query().Get("city"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"49.2331","lon":"28.4682"}]`))
	})

	pos, err := client.Geocode(context.Background(), "Soborna, 12", "Vinnytsia")
	require.NoError(t, err)
	assert.InDelta(t, 49.2331, pos.Lat, 1e-9)
	assert.InDelta(t, 28.4682, pos.Lng, 1e-9)
}

func TestNominatimClient_Geocode_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := client.Geocode(context.Background(), "nowhere", "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNominatimClient_BoundaryByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("polygon_geojson"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"45","lon":"34","geojson":{"type":"Polygon","coordinates":[[[32.4,44.3],[36.7,44.3],[36.7,46.3],[32.4,46.3],[32.4,44.3]]]}}]`))
	})

	g, err := client.BoundaryByName(context.Background(), "Crimea")
	require.NoError(t, err)
	poly, ok := g.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 5)
}

func TestNominatimClient_BoundaryByName_Point(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"45","lon":"34","geojson":{"type":"Point","coordinates":[34,45]}}]`))
	})

	_, err := client.BoundaryByName(context.Background(), "somewhere")
	assert.ErrorIs(t, err, model.ErrBadRequest)
}
