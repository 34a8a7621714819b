package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgreSQLClient PostgreSQL直接接続クライアント
type PostgreSQLClient struct {
	DB     *sql.DB
	logger *zap.Logger
}

// NewPostgreSQLClient 新しいPostgreSQLクライアントを作成
func NewPostgreSQLClient(ctx context.Context, dsn string, logger *zap.Logger) (*PostgreSQLClient, error) {
	return NewPostgreSQLClientWithRetry(ctx, dsn, 1, 0, logger)
}

// NewPostgreSQLClientWithRetry 接続テストを最大attempts回まで再試行する
func NewPostgreSQLClientWithRetry(ctx context.Context, dsn string, attempts int, delay time.Duration, logger *zap.Logger) (*PostgreSQLClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Warn("PostgreSQLへの接続に失敗、再試行します",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if i < attempts {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	return &PostgreSQLClient{DB: db, logger: logger}, nil
}

// NewPostgreSQLClientFromDB 既存の*sql.DBから作成（テスト用）
func NewPostgreSQLClientFromDB(db *sql.DB, logger *zap.Logger) *PostgreSQLClient {
	return &PostgreSQLClient{DB: db, logger: logger}
}

// SetPoolLimits コネクションプールの上限を設定
func (pc *PostgreSQLClient) SetPoolLimits(maxOpen, maxIdle int) {
	pc.DB.SetMaxOpenConns(maxOpen)
	pc.DB.SetMaxIdleConns(maxIdle)
	pc.DB.SetConnMaxLifetime(30 * time.Minute)
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck(ctx context.Context) error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.PingContext(ctx)
}
