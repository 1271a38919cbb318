package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
    m := New()

    m.RequestsReceived.Inc()
    m.ResponsesByStatus.WithLabelValues("404").Inc()
    m.RateLimitRejected.WithLabelValues("login").Add(2)
    m.DatabaseReady.Set(1)

    if got := testutil.ToFloat64(m.RequestsReceived); got != 1 {
        t.Errorf("got %v requests; want 1", got)
    }
    if got := testutil.ToFloat64(m.RateLimitRejected.WithLabelValues("login")); got != 2 {
        t.Errorf("got %v login rejections; want 2", got)
    }
    if got := testutil.ToFloat64(m.DatabaseReady); got != 1 {
        t.Errorf("got database ready %v; want 1", got)
    }
}

func TestInstancesDoNotShareRegistries(t *testing.T) {
    a := New()
    b := New()

    a.RequestsReceived.Inc()

    if got := testutil.ToFloat64(b.RequestsReceived); got != 0 {
        t.Errorf("second instance saw %v requests; want 0", got)
    }
}

func TestHandler(t *testing.T) {
    m := New()
    m.ResponsesByStatus.WithLabelValues("200").Inc()

    rr := httptest.NewRecorder()
    m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

    if rr.Code != http.StatusOK {
        t.Fatalf("got status %d; want %d", rr.Code, http.StatusOK)
    }

    body, _ := io.ReadAll(rr.Body)
    if !strings.Contains(string(body), `exams_http_responses_sent_total{code="200"} 1`) {
        t.Errorf("exposition is missing the response counter:\n%s", body)
    }
}
