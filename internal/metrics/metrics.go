// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証・タスク操作の結果ラベル
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeForbidden = "forbidden"
	OutcomeNotFound  = "not_found"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordSignup(outcome string)
	RecordSignin(outcome string)
	RecordTokenValidation(valid bool)
	RecordTaskOperation(op, outcome string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups          *prometheus.CounterVec
	signins          *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	taskOperations   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_signup_total",
			Help: "サインアップ試行の結果別合計数",
		}, []string{"outcome"}),
		signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_signin_total",
			Help: "サインイン試行の結果別合計数",
		}, []string{"outcome"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_token_validation_total",
			Help: "Bearerトークン検証の結果別合計数",
		}, []string{"outcome"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_task_operations_total",
			Help: "タスク操作の種類・結果別合計数",
		}, []string{"op", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskman_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signups,
		c.signins,
		c.tokenValidations,
		c.taskOperations,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSignup はサインアップ結果を記録する。
func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

// RecordSignin はサインイン結果を記録する。
func (c *Collector) RecordSignin(outcome string) {
	c.signins.WithLabelValues(outcome).Inc()
}

// RecordTokenValidation はトークン検証結果を記録する。
func (c *Collector) RecordTokenValidation(valid bool) {
	outcome := OutcomeSuccess
	if !valid {
		outcome = OutcomeInvalid
	}
	c.tokenValidations.WithLabelValues(outcome).Inc()
}

// RecordTaskOperation はタスク操作の結果を記録する。
func (c *Collector) RecordTaskOperation(op, outcome string) {
	c.taskOperations.WithLabelValues(op, outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordSignup(string) {}
func (Nop) RecordSignin(string) {}
func (Nop) RecordTokenValidation(bool) {}
func (Nop) RecordTaskOperation(string, string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordRequestLatency(time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
