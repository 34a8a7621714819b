package handler

import (
	"errors"
	"net/http"
	"strconv"

	"Aidmap-App/internal/domain/model"

	"github.com/gin-gonic/gin"
)

// statusOf ドメインエラーをHTTPステータスとエラーコードに変換
func statusOf(err error) (int, string, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found", "Not found"
	case errors.Is(err, model.ErrAlreadyExists):
		return http.StatusConflict, "already_exists", "Already exists"
	case errors.Is(err, model.ErrRestricted):
		return http.StatusForbidden, "restricted", "Locations in this area are restricted"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden", "Not allowed"
	case errors.Is(err, model.ErrInvalidToken), errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized", "Could not validate credentials"
	case errors.Is(err, model.ErrBadRequest), errors.Is(err, model.ErrInactive):
		return http.StatusBadRequest, "bad_request", "Bad request"
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", "Too many requests"
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", "Service unavailable, please try again later"
	default:
		return http.StatusInternalServerError, "internal_error", "Encountered an unexpected error, please try again later."
	}
}

// respondError エラーをJSONで返す。500の場合のみ詳細を隠す
func respondError(c *gin.Context, err error) {
	status, code, fallback := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": model.MessageOf(err, fallback),
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": message,
	})
}

// queryInt64 必須の整数クエリパラメータ
func queryInt64(c *gin.Context, key string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		badRequest(c, key+" parameter is required and must be an integer")
		return 0, false
	}
	return v, true
}

func paramInt64(c *gin.Context, key string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		badRequest(c, "Invalid "+key)
		return 0, false
	}
	return v, true
}

// queryFloat 必須の小数クエリパラメータ
func queryFloat(c *gin.Context, key string) (float64, bool) {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		badRequest(c, key+" parameter is required and must be a number")
		return 0, false
	}
	return v, true
}

// queryIntDefault 省略可能な整数クエリパラメータ
func queryIntDefault(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid "+key)
		return 0, false
	}
	return v, true
}
