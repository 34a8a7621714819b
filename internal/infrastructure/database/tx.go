package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// DBTX *sql.DB と *sql.Tx の共通部分
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Conn コンテキストにトランザクションがあればそれを、なければDBを返す
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// WithinTx fnを1つのトランザクション内で実行する
// fnがエラーを返すかpanicした場合はロールバックする
func (pc *PostgreSQLClient) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	// 既にトランザクション内なら入れ子にしない
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := pc.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始失敗: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && pc.logger != nil {
				pc.logger.Error("ロールバック失敗", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("コミット失敗: %w", err)
	}
	return nil
}
