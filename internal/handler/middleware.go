package handler

import (
	"strconv"
	"strings"
	"time"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/infrastructure/metrics"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	currentUserKey  = "current_user"
)

// RequestID リクエストごとのIDを付与する。クライアントが指定した場合はそれを使う
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog アクセスログをzapで出力する
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Metrics ルートごとのリクエスト数と処理時間
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDurationMs.WithLabelValues(c.Request.Method, route).
			Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

// Authenticator Bearerトークンの検証とスコープの確認
type Authenticator struct {
	auth usecase.AuthUseCase
}

func NewAuthenticator(auth usecase.AuthUseCase) *Authenticator {
	return &Authenticator{auth: auth}
}

// Require users:me と指定スコープを要求する
func (a *Authenticator) Require(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, model.Detail(model.ErrInvalidToken, "Not authenticated"))
			return
		}

		user, err := a.auth.Authenticate(c.Request.Context(), token, scopes...)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser 認証済みユーザー。Requireを通過したルートでのみ呼ぶ
func currentUser(c *gin.Context) *model.User {
	v, _ := c.Get(currentUserKey)
	user, _ := v.(*model.User)
	return user
}
