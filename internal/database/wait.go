package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialBackoff は接続リトライの初回遅延。
	initialBackoff = 500 * time.Millisecond
	// maxBackoff は接続リトライの最大遅延。
	maxBackoff = 5 * time.Second
	// pingTimeout は1回の疎通確認のタイムアウト。
	pingTimeout = 5 * time.Second
)

// Pinger は疎通確認に必要なインターフェース。*sql.DB が満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大5秒。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// WaitForDB はDBへの疎通をattempts回まで指数バックオフで再試行する。
// attemptsが1未満の場合は1回だけ試行する。
// ctxがキャンセルされた場合は待機を中断してエラーを返す。
func WaitForDB(ctx context.Context, db Pinger, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		delay := CalculateBackoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("retry_in", delay),
			slog.String("error", lastErr.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database wait canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
