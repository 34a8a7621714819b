package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Aidmap-App/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient Redisクライアントを作成
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping Redis接続の確認
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

const otpKeyPrefix = "otp:"

// RedisOTPStore 電話番号ごとのOTPをTTL付きで保持する
type RedisOTPStore struct {
	c *redis.Client
}

func NewRedisOTPStore(c *redis.Client) *RedisOTPStore { return &RedisOTPStore{c: c} }

// Save 同じ番号の既存コードは上書きされる
func (s *RedisOTPStore) Save(ctx context.Context, phoneNumber, code string, ttl time.Duration) error {
	if err := s.c.Set(ctx, otpKeyPrefix+phoneNumber, code, ttl).Err(); err != nil {
		return fmt.Errorf("OTPの保存失敗: %w", err)
	}
	return nil
}

// Verify 一致した場合はコードを削除して true を返す
func (s *RedisOTPStore) Verify(ctx context.Context, phoneNumber, code string) (bool, error) {
	key := otpKeyPrefix + phoneNumber
	stored, err := s.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("OTPの取得失敗: %w", err)
	}
	if stored != code {
		return false, nil
	}
	// 同時に照合された場合は先に削除できた方だけを有効とする
	n, err := s.c.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("OTPの削除失敗: %w", err)
	}
	return n == 1, nil
}

func (s *RedisOTPStore) Invalidate(ctx context.Context, phoneNumber string) error {
	if err := s.c.Del(ctx, otpKeyPrefix+phoneNumber).Err(); err != nil {
		return fmt.Errorf("OTPの削除失敗: %w", err)
	}
	return nil
}

const rateKeyPrefix = "ratelimit:"

// RedisRateLimiter INCR と EXPIRE による固定ウィンドウ方式のレート制限
type RedisRateLimiter struct {
	c *redis.Client
}

func NewRedisRateLimiter(c *redis.Client) *RedisRateLimiter { return &RedisRateLimiter{c: c} }

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	k := rateKeyPrefix + key
	count, err := l.c.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("レート制限カウンタの更新失敗: %w", err)
	}
	if count == 1 {
		if err := l.c.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("レート制限カウンタの期限設定失敗: %w", err)
		}
	}
	return count <= int64(limit), nil
}
