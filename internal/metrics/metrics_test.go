package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから指定名のメトリクスファミリーを取得する。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// counterByLabels はラベル値が一致するカウンタの値を返す。
func counterByLabels(mf *dto.MetricFamily, values ...string) float64 {
	for _, m := range mf.GetMetric() {
		labels := m.GetLabel()
		if len(labels) != len(values) {
			continue
		}
		match := true
		for i, l := range labels {
			if l.GetValue() != values[i] {
				match = false
				break
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordSignup_CountsByOutcome はサインアップ結果がラベル別に集計されることを検証する。
func TestRecordSignup_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup(OutcomeSuccess)
	c.RecordSignup(OutcomeSuccess)
	c.RecordSignup(OutcomeDuplicate)

	mf := findMetric(t, reg, "taskman_signup_total")
	if got := counterByLabels(mf, OutcomeSuccess); got != 2 {
		t.Errorf("signup_total{outcome=success} = %v, want 2", got)
	}
	if got := counterByLabels(mf, OutcomeDuplicate); got != 1 {
		t.Errorf("signup_total{outcome=duplicate} = %v, want 1", got)
	}
}

// TestRecordSignin_CountsByOutcome はサインイン結果がラベル別に集計されることを検証する。
func TestRecordSignin_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignin(OutcomeFailure)
	c.RecordSignin(OutcomeFailure)
	c.RecordSignin(OutcomeFailure)
	c.RecordSignin(OutcomeSuccess)

	mf := findMetric(t, reg, "taskman_signin_total")
	if got := counterByLabels(mf, OutcomeFailure); got != 3 {
		t.Errorf("signin_total{outcome=failure} = %v, want 3", got)
	}
	if got := counterByLabels(mf, OutcomeSuccess); got != 1 {
		t.Errorf("signin_total{outcome=success} = %v, want 1", got)
	}
}

// TestRecordTokenValidation_MapsBoolToOutcome はトークン検証結果がsuccess/invalidに振り分けられることを検証する。
func TestRecordTokenValidation_MapsBoolToOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenValidation(true)
	c.RecordTokenValidation(false)
	c.RecordTokenValidation(false)

	mf := findMetric(t, reg, "taskman_token_validation_total")
	if got := counterByLabels(mf, OutcomeSuccess); got != 1 {
		t.Errorf("token_validation_total{outcome=success} = %v, want 1", got)
	}
	if got := counterByLabels(mf, OutcomeInvalid); got != 2 {
		t.Errorf("token_validation_total{outcome=invalid} = %v, want 2", got)
	}
}

// TestRecordTaskOperation_CountsByOpAndOutcome はタスク操作が操作種別と結果で集計されることを検証する。
func TestRecordTaskOperation_CountsByOpAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTaskOperation("delete", OutcomeForbidden)
	c.RecordTaskOperation("delete", OutcomeSuccess)
	c.RecordTaskOperation("create", OutcomeSuccess)

	mf := findMetric(t, reg, "taskman_task_operations_total")
	if len(mf.GetMetric()) != 3 {
		t.Fatalf("expected 3 label combinations, got %d", len(mf.GetMetric()))
	}
	if got := counterByLabels(mf, "delete", OutcomeForbidden); got != 1 {
		t.Errorf("task_operations_total{op=delete,outcome=forbidden} = %v, want 1", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetric(t, reg, "taskman_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	if got := counterByLabels(mf, "200"); got != 2 {
		t.Errorf("http_status_total{status_code=200} = %v, want 2", got)
	}
	if got := counterByLabels(mf, "404"); got != 1 {
		t.Errorf("http_status_total{status_code=404} = %v, want 1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はリクエスト処理時間のヒストグラムに値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(100 * time.Millisecond)
	c.RecordRequestLatency(2 * time.Second)

	mf := findMetric(t, reg, "taskman_request_duration_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
	}
	// 合計は0.1 + 2.0 = 2.1秒
	if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup(OutcomeSuccess)
	c.RecordSignin(OutcomeFailure)
	c.RecordTokenValidation(true)
	c.RecordTaskOperation("create", OutcomeSuccess)
	c.RecordHTTPStatus(200)
	c.RecordRequestLatency(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"taskman_signup_total",
		"taskman_signin_total",
		"taskman_token_validation_total",
		"taskman_task_operations_total",
		"taskman_http_status_total",
		"taskman_request_duration_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestNop_DoesNotPanic はNopが何もせずに呼び出せることを検証する。
func TestNop_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = Nop{}
	c.RecordSignup(OutcomeSuccess)
	c.RecordSignin(OutcomeFailure)
	c.RecordTokenValidation(false)
	c.RecordTaskOperation("list", OutcomeSuccess)
	c.RecordHTTPStatus(500)
	c.RecordRequestLatency(time.Second)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSignup(OutcomeSuccess)
	c2.RecordSignup(OutcomeSuccess)
	c2.RecordSignup(OutcomeSuccess)

	val1 := counterByLabels(findMetric(t, reg1, "taskman_signup_total"), OutcomeSuccess)
	val2 := counterByLabels(findMetric(t, reg2, "taskman_signup_total"), OutcomeSuccess)

	if val1 != 1 {
		t.Errorf("reg1 signup_total = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 signup_total = %v, want 2", val2)
	}
}
