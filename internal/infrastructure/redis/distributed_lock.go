package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"
)

const lockPrefix = "lock:"

var (
	ErrLockNotAcquired = apperr.New(apperr.KindConflict, "同じスペースの予約処理が進行中です。しばらくしてから再試行してください")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
	ErrInvalidLockTTL  = errors.New("ロックの有効期限は正の値である必要があります")
)

// 自分が置いた値のときだけ削除する
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Lock は取得済みのロック
type Lock interface {
	Release(ctx context.Context) error
}

// LockManagerInterface は予約サービスが使うロック取得の抽象
type LockManagerInterface interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error)
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error)
}

// spaceLock は SET NX PX で置いたキーと、所有者を示すトークン
type spaceLock struct {
	client *redis.Client
	key    string
	token  string
}

// LockManager は Redis の単一ノードで排他を取る
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// AcquireLock は key のロックを一度だけ試みる。保持者がいれば ErrLockNotAcquired
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	if ttl <= 0 {
		return nil, ErrInvalidLockTTL
	}
	l := &spaceLock{client: m.client, key: lockPrefix + key, token: uuid.NewString()}
	ok, err := m.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return l, nil
}

// AcquireLockWithRetry は待ち時間を倍にしながら最大 maxRetries 回試みる
// Redis 自体のエラーはリトライせずにそのまま返す
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error) {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		l, err := m.AcquireLock(ctx, key, ttl)
		if err == nil || !errors.Is(err, ErrLockNotAcquired) || attempt >= maxRetries {
			return l, err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

// Release はロックを解放する。期限切れで他者に渡っていれば ErrLockNotOwned
func (l *spaceLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	return nil
}

var _ LockManagerInterface = (*LockManager)(nil)
