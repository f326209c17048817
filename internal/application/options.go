package application

import (
	"time"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/notification"
	redislock "github.com/sanosuguru/go-facility-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/metrics"
)

// Option は ReservationService の任意設定
type Option func(*ReservationService)

// WithLockManager は同一スペースへの同時書き込みを Redis ロックで絞る
func WithLockManager(lm redislock.LockManagerInterface, ttl time.Duration) Option {
	return func(s *ReservationService) {
		s.lockManager = lm
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithPublisher は通知依頼の発行先と宛先ポリシーを設定する
func WithPublisher(p notification.Publisher, policy notification.Policy, timeout time.Duration) Option {
	return func(s *ReservationService) {
		s.publisher = p
		s.policy = policy
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ReservationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock は現在時刻の取得元を差し替える
func WithClock(c Clock) Option {
	return func(s *ReservationService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation は日付・時刻を解釈するキャンパスのタイムゾーンを設定する
func WithLocation(loc *time.Location) Option {
	return func(s *ReservationService) {
		if loc != nil {
			s.loc = loc
		}
	}
}
