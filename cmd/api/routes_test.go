package main

import (
	"net/http"
	"strings"
	"testing"
)

func TestLiveness(t *testing.T) {
    app := newTestApplication(t, "development", nil)

    res := do(t, app.routes(), newRequest(http.MethodGet, "/", ""))

    if res.status != http.StatusOK {
        t.Fatalf("got status %d; want %d", res.status, http.StatusOK)
    }
    if res.body != livenessMessage {
        t.Errorf("got body %q; want %q", res.body, livenessMessage)
    }
    if !strings.HasPrefix(res.header.Get("Content-Type"), "text/plain") {
        t.Errorf("got Content-Type %q; want text/plain", res.header.Get("Content-Type"))
    }
}

func TestUnmatchedRoutes(t *testing.T) {
    app := newTestApplication(t, "production", nil)
    h := app.routes()

    tests := []struct {
        name   string
        method string
        target string
    }{
        {"unknown path", http.MethodGet, "/does-not-exist"},
        {"unknown nested path", http.MethodPost, "/exams/1/publish"},
        {"wrong method", http.MethodPut, "/exams"},
        {"options without preflight", http.MethodOptions, "/exams"},
        {"api prefix", http.MethodGet, "/api/exams"},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            res := do(t, h, newRequest(tt.method, tt.target, ""))

            if res.status != http.StatusNotFound {
                t.Fatalf("got status %d; want %d", res.status, http.StatusNotFound)
            }
            if res.message != "Route not found" {
                t.Errorf("got message %v; want %q", res.message, "Route not found")
            }
        })
    }
}

func TestDatabaseRoutesFailFastWhenDisconnected(t *testing.T) {
    app := newTestApplication(t, "development", nil)
    h := app.routes()

    token, err := app.tokens.Issue(1)
    if err != nil {
        t.Fatal(err)
    }

    tests := []struct {
        method string
        target string
        body   string
    }{
        {http.MethodPost, "/auth/register", `{"name":"Ada","email":"ada@example.com","password":"pa55word123"}`},
        {http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"pa55word123"}`},
        {http.MethodGet, "/auth/me", ""},
        {http.MethodGet, "/users", ""},
        {http.MethodGet, "/exams", ""},
        {http.MethodGet, "/exams/1", ""},
        {http.MethodGet, "/questions?exam_id=1", ""},
        {http.MethodPost, "/submit/1", `{"answers":{"1":0}}`},
        {http.MethodGet, "/academic/records", ""},
    }

    for _, tt := range tests {
        t.Run(tt.method+" "+tt.target, func(t *testing.T) {
            r := newRequest(tt.method, tt.target, tt.body)
            r.Header.Set("Authorization", "Bearer "+token.Plaintext)

            res := do(t, h, r)

            if res.status != http.StatusServiceUnavailable {
                t.Fatalf("got status %d; want %d", res.status, http.StatusServiceUnavailable)
            }
            if res.message != "database unavailable" {
                t.Errorf("got message %v; want %q", res.message, "database unavailable")
            }
        })
    }
}

func TestReadinessReportsDatabaseState(t *testing.T) {
    app := newTestApplication(t, "development", nil)

    res := do(t, app.routes(), newRequest(http.MethodGet, "/healthz", ""))

    if res.status != http.StatusServiceUnavailable {
        t.Fatalf("got status %d; want %d", res.status, http.StatusServiceUnavailable)
    }
    if !strings.Contains(res.body, `"not ready"`) {
        t.Errorf("body does not report not ready: %s", res.body)
    }
}

func TestMetricsEndpoint(t *testing.T) {
    app := newTestApplication(t, "development", nil)
    h := app.routes()

    do(t, h, newRequest(http.MethodGet, "/", ""))

    res := do(t, h, newRequest(http.MethodGet, "/metrics", ""))

    if res.status != http.StatusOK {
        t.Fatalf("got status %d; want %d", res.status, http.StatusOK)
    }
    for _, name := range []string{"exams_http_requests_received_total", "exams_http_responses_sent_total", "exams_db_ready"} {
        if !strings.Contains(res.body, name) {
            t.Errorf("metrics output is missing %s", name)
        }
    }
}
