// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証結果のラベル値。
const (
	AuthOutcomeAuthenticated = "authenticated"
	AuthOutcomeAnonymous     = "anonymous"
	AuthOutcomeInvalid       = "invalid_session"
	AuthOutcomeSyncFailed    = "sync_failed"
	AuthOutcomeError         = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// RPCルーター、認証、ハンドラー層から利用する。
type MetricsCollector interface {
	RecordProcedureCall(procedure, code string)
	RecordProcedureLatency(procedure string, duration time.Duration)
	RecordAuthOutcome(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordUpload(size int)
	RecordNotification(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	procedureCalls   *prometheus.CounterVec
	procedureLatency *prometheus.HistogramVec
	authOutcomes     *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	uploads          prometheus.Counter
	uploadBytes      prometheus.Counter
	notifications    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		procedureCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_procedure_calls_total",
			Help: "リモートプロシージャ呼び出しの合計数（結果コード別）",
		}, []string{"procedure", "code"}),
		procedureLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kickoff_procedure_latency_seconds",
			Help:    "リモートプロシージャのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_auth_outcomes_total",
			Help: "リクエスト認証結果の合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_uploads_total",
			Help: "ストレージへのアップロード合計数",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_upload_bytes_total",
			Help: "ストレージへアップロードしたバイト数の合計",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_notifications_total",
			Help: "オーナー通知の送信結果",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.procedureCalls,
		c.procedureLatency,
		c.authOutcomes,
		c.httpStatus,
		c.uploads,
		c.uploadBytes,
		c.notifications,
	)

	return c
}

// RecordProcedureCall はプロシージャ呼び出しを結果コードとともに記録する。
func (c *Collector) RecordProcedureCall(procedure, code string) {
	c.procedureCalls.WithLabelValues(procedure, code).Inc()
}

// RecordProcedureLatency はプロシージャのレイテンシを記録する。
func (c *Collector) RecordProcedureLatency(procedure string, duration time.Duration) {
	c.procedureLatency.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordAuthOutcome はリクエスト認証の結果を記録する。
func (c *Collector) RecordAuthOutcome(outcome string) {
	c.authOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpload はアップロード件数とサイズを記録する。
func (c *Collector) RecordUpload(size int) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(size))
}

// RecordNotification はオーナー通知の送信結果を記録する。
func (c *Collector) RecordNotification(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.notifications.WithLabelValues(result).Inc()
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordProcedureCall(string, string)            {}
func (NopCollector) RecordProcedureLatency(string, time.Duration) {}
func (NopCollector) RecordAuthOutcome(string)                      {}
func (NopCollector) RecordHTTPStatus(int)                          {}
func (NopCollector) RecordUpload(int)                              {}
func (NopCollector) RecordNotification(bool)                       {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
