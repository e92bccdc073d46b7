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

// findFamily は収集済みメトリクスから名前の一致するものを返す。
func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue は指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordReport_CountsOutcomeAndObservesLatency は結果区分別のカウンタとレイテンシが記録されることを検証する。
func TestRecordReport_CountsOutcomeAndObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordReport(OutcomeOK, 100*time.Millisecond)
	c.RecordReport(OutcomeOK, 2*time.Second)
	c.RecordReport(OutcomeNoData, 10*time.Millisecond)

	mf := findFamily(t, reg, "teamboard_reports_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		val := m.GetCounter().GetValue()
		switch outcome := labelValue(m, "outcome"); outcome {
		case OutcomeOK:
			if val != 2 {
				t.Errorf("reports_total{outcome=ok} = %v, want 2", val)
			}
		case OutcomeNoData:
			if val != 1 {
				t.Errorf("reports_total{outcome=no_data} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected label value: %s", outcome)
		}
	}

	h := findFamily(t, reg, "teamboard_report_latency_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 3 {
		t.Errorf("sample_count = %d, want 3", h.GetSampleCount())
	}
	// 合計は0.1 + 2.0 + 0.01 = 2.11秒
	if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample_sum = %v, want ~2.11", h.GetSampleSum())
	}
}

// TestRecordLedgerWrite_IncrementsCounterWithLabels は操作と結果のラベル付きで増加することを検証する。
func TestRecordLedgerWrite_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLedgerWrite("log", OutcomeOK)
	c.RecordLedgerWrite("log", OutcomeOK)
	c.RecordLedgerWrite("correct", OutcomeNotFound)

	mf := findFamily(t, reg, "teamboard_ledger_writes_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		op := labelValue(m, "operation")
		outcome := labelValue(m, "outcome")
		val := m.GetCounter().GetValue()
		switch {
		case op == "log" && outcome == OutcomeOK:
			if val != 2 {
				t.Errorf("ledger_writes_total{log,ok} = %v, want 2", val)
			}
		case op == "correct" && outcome == OutcomeNotFound:
			if val != 1 {
				t.Errorf("ledger_writes_total{correct,not_found} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected labels: %s/%s", op, outcome)
		}
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findFamily(t, reg, "teamboard_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		label := labelValue(m, "status_code")
		val := m.GetCounter().GetValue()
		switch label {
		case "200":
			if val != 2 {
				t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
			}
		case "404":
			if val != 1 {
				t.Errorf("http_status_total{status_code=404} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected label value: %s", label)
		}
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordReport(OutcomeOK, 500*time.Millisecond)
	c.RecordLedgerWrite("log", OutcomeOK)
	c.RecordHTTPStatus(200)

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
		"teamboard_reports_total",
		"teamboard_report_latency_seconds",
		"teamboard_ledger_writes_total",
		"teamboard_http_status_total",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordHTTPStatus(200)
	c2.RecordHTTPStatus(200)
	c2.RecordHTTPStatus(200)

	val1 := findFamily(t, reg1, "teamboard_http_status_total").GetMetric()[0].GetCounter().GetValue()
	val2 := findFamily(t, reg2, "teamboard_http_status_total").GetMetric()[0].GetCounter().GetValue()

	if val1 != 1 {
		t.Errorf("reg1 http_status = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 http_status = %v, want 2", val2)
	}
}
