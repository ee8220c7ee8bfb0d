package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ExposesCollectors(t *testing.T) {
	SignalResolutions.WithLabelValues("fresh").Inc()
	OrdersTotal.WithLabelValues("BUY", "filled").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`signal_resolutions_total{origin="fresh"}`,
		`orders_total{side="BUY",status="filled"}`,
		"trading_loop_active",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
