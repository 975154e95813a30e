package metrics

import (
	"strconv"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "referral"

// Metrics はアプリケーションのメトリクスをまとめます。
type Metrics struct {
	accessDecisions *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	billingEvents   *prometheus.CounterVec
	expiredTracks   prometheus.Counter
}

// New はメトリクスを生成し reg に登録します。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "access_decisions_total",
				Help:      "Subscription access decisions by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration observed at the API layer.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled by the API.",
			},
			[]string{"method", "route", "status"},
		),
		billingEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "events_total",
				Help:      "Billing events consumed by kind and result.",
			},
			[]string{"kind", "result"},
		),
		expiredTracks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "expired_accounts_total",
				Help:      "Accounts whose overdue subscriptions were canceled by the expiry sweep.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.accessDecisions, m.httpDuration, m.httpRequests, m.billingEvents, m.expiredTracks)
	}
	return m
}

// RecordDecision はアクセス判定の結果を記録します。
func (m *Metrics) RecordDecision(op access.Operation, outcome access.Outcome) {
	if m == nil {
		return
	}
	m.accessDecisions.WithLabelValues(op.Name, string(outcome)).Inc()
}

// ObserveHTTPRequest は HTTP リクエストの結果を記録します。route はルーティングパターンを渡してください。
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}

// RecordBillingEvent は請求イベントの処理結果を記録します。
func (m *Metrics) RecordBillingEvent(kind, result string) {
	if m == nil {
		return
	}
	m.billingEvents.WithLabelValues(kind, result).Inc()
}

// AddExpired は期限切れ処理で更新したアカウント数を加算します。
func (m *Metrics) AddExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.expiredTracks.Add(float64(n))
}
