package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// メトリクス名の接頭辞
const namespace = "facility_reservation"

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, route, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, route）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約作成の結果（status: confirmed, pending, conflict, invalid, error）
	ReservationsTotal *prometheus.CounterVec

	// 状態遷移の結果（action: approve/reject/cancel/edit/delete, status: success/forbidden/invalid_state/conflict/error）
	ReservationTransitionsTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/contended/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 有効な予約数（status: pending, confirmed, rejected, cancelled）
	ActiveReservations *prometheus.GaugeVec

	// 通知依頼の発行結果（type, status: success/failed/skipped）
	NotificationsTotal *prometheus.CounterVec

	// 履歴の書き込み結果（change_type, status: success/failed）
	HistoryWritesTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: counter("http_requests_total",
			"Total number of HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration: histogram("http_request_duration_seconds",
			"HTTP request latency in seconds", httpBuckets, "method", "route"),
		ReservationsTotal: counter("reservations_total",
			"Total number of reservation create attempts by outcome", "status"),
		ReservationTransitionsTotal: counter("reservation_transitions_total",
			"Total number of reservation lifecycle operations by outcome", "action", "status"),
		DistributedLockDuration: histogram("distributed_lock_duration_seconds",
			"Time spent on distributed lock operations", lockBuckets, "operation", "status"),
		ActiveReservations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_reservations",
			Help:      "Current number of non-deleted reservations by status",
		}, []string{"status"}),
		NotificationsTotal: counter("reservation_notifications_total",
			"Total number of notification requests published to the broker", "type", "status"),
		HistoryWritesTotal: counter("reservation_history_writes_total",
			"Total number of history entries written", "change_type", "status"),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.ReservationTransitionsTotal,
		m.DistributedLockDuration,
		m.ActiveReservations,
		m.NotificationsTotal,
		m.HistoryWritesTotal,
	)
	return m
}

var (
	httpBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	lockBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
)

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

// Noop はどこにも登録しないメトリクスを返す（テストやメトリクス無効時用）
func Noop() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}
