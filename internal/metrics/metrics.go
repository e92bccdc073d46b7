// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// レポート生成の結果区分
const (
	OutcomeOK              = "ok"
	OutcomeNoData          = "no_data"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeInvalidToken    = "invalid_token"
	OutcomeUnknownIdentity = "unknown_identity"
	OutcomeNotFound        = "not_found"
	OutcomeError           = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordReport(outcome string, duration time.Duration)
	RecordLedgerWrite(operation, outcome string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reports       *prometheus.CounterVec
	reportLatency prometheus.Histogram
	ledgerWrites  *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_reports_total",
			Help: "結果区分別のチームボードレポート生成数",
		}, []string{"outcome"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamboard_report_latency_seconds",
			Help:    "チームボードレポート生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		ledgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_ledger_writes_total",
			Help: "操作・結果区分別の作業時間記録の書き込み数",
		}, []string{"operation", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.reports,
		c.reportLatency,
		c.ledgerWrites,
		c.httpStatus,
	)

	return c
}

// RecordReport はレポート生成の結果とレイテンシを記録する。
func (c *Collector) RecordReport(outcome string, duration time.Duration) {
	c.reports.WithLabelValues(outcome).Inc()
	c.reportLatency.Observe(duration.Seconds())
}

// RecordLedgerWrite は作業時間記録の書き込み結果を記録する。
func (c *Collector) RecordLedgerWrite(operation, outcome string) {
	c.ledgerWrites.WithLabelValues(operation, outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
