package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aidmap_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aidmap_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"method", "route"})
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aidmap_location_submissions_total",
		Help: "Location submissions by outcome",
	}, []string{"outcome"})
	ZoneCacheLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aidmap_zone_cache_loads_total",
		Help: "Total restricted zone cache loads",
	})
	ZoneCheckFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aidmap_zone_check_failures_total",
		Help: "Zone checks that failed closed due to load or parse errors",
	})
	GeocoderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aidmap_geocoder_requests_total",
		Help: "Geocoder requests by operation and result",
	}, []string{"op", "result"})
	GeocoderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aidmap_geocoder_duration_ms",
		Help:    "Geocoder call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"op"})
	OTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aidmap_otp_requests_total",
		Help: "Guest OTP requests by result",
	}, []string{"result"})
	BulkImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aidmap_bulk_import_rows_total",
		Help: "Bulk import rows by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(ZoneCacheLoadsTotal)
	prometheus.MustRegister(ZoneCheckFailuresTotal)
	prometheus.MustRegister(GeocoderRequestsTotal)
	prometheus.MustRegister(GeocoderDurationMs)
	prometheus.MustRegister(OTPRequestsTotal)
	prometheus.MustRegister(BulkImportRowsTotal)
}

// Handler /metrics 用のハンドラ
func Handler() http.Handler { return promhttp.Handler() }
