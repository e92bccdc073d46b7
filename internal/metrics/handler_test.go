package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestHandler_ServesRegisteredMetrics はスクレイプ時に登録済みのメトリクスが返ることを検証する。
func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(204)
	c.RecordLedgerWrite("log", OutcomeOK)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, name := range []string{"teamboard_http_status_total", "teamboard_ledger_writes_total"} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("response should contain %s metric", name)
		}
	}
}

// TestHandler_OmitsUnregisteredCollectors は別レジストリのメトリクスが混ざらないことを検証する。
func TestHandler_OmitsUnregisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	other := NewCollector(prometheus.NewRegistry())
	other.RecordHTTPStatus(500)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	body, _ := io.ReadAll(w.Result().Body)
	if strings.Contains(string(body), "teamboard_http_status_total") {
		t.Error("metrics from another registry should not be exposed")
	}
}
