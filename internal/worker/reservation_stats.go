package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

// StatusCounter はステータス別の予約件数を返すインターフェース
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[reservation.Status]int, error)
}

var trackedStatuses = []reservation.Status{
	reservation.StatusPending,
	reservation.StatusConfirmed,
	reservation.StatusRejected,
	reservation.StatusCancelled,
}

// DefaultStatsInterval は集計間隔が指定されていないときの既定値
const DefaultStatsInterval = time.Minute

// ReservationStatsCollector は予約件数を定期的に集計してゲージに反映するワーカー
type ReservationStatsCollector struct {
	counter  StatusCounter
	gauge    *prometheus.GaugeVec
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReservationStatsCollector は新しいコレクターを作成
// interval が 0 以下なら DefaultStatsInterval を使う
func NewReservationStatsCollector(counter StatusCounter, gauge *prometheus.GaugeVec, interval time.Duration) *ReservationStatsCollector {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &ReservationStatsCollector{
		counter:  counter,
		gauge:    gauge,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はコレクターを開始。起動直後に1回集計する
func (c *ReservationStatsCollector) Start(ctx context.Context) {
	logger.Info("予約件数コレクター開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	c.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("予約件数コレクター停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			logger.Info("予約件数コレクター停止（シグナル受信）")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// Stop はコレクターを停止
func (c *ReservationStatsCollector) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

// collect は件数を取得してゲージを更新する。失敗時は前回の値を残す
func (c *ReservationStatsCollector) collect(ctx context.Context) {
	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		logger.Error("予約件数の集計に失敗しました", zap.Error(err))
		return
	}
	for _, st := range trackedStatuses {
		c.gauge.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	logger.Debug("予約件数を更新", zap.Int("confirmed", counts[reservation.StatusConfirmed]), zap.Int("pending", counts[reservation.StatusPending]))
}
