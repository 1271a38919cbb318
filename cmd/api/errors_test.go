package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandleError(t *testing.T) {
    tests := []struct {
        name        string
        env         string
        err         error
        wantStatus  int
        wantMessage string
    }{
        {"plain error verbose", "development", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
        {"plain error staging", "staging", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
        {"plain error production", "production", errors.New("disk on fire"), http.StatusInternalServerError, "Server error"},
        {"declared status verbose", "development", badRequest(errors.New("bad input")), http.StatusBadRequest, "bad input"},
        {"declared status production", "production", badRequest(errors.New("bad input")), http.StatusBadRequest, "Server error"},
        {"out of range status", "development", errorWithStatus(200, errors.New("odd")), http.StatusInternalServerError, "odd"},
        {"lost connection", "development", fmt.Errorf("get exam: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), http.StatusServiceUnavailable, "database unavailable"},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            app := newTestApplication(t, tt.env, nil)

            h := app.handle(func(w http.ResponseWriter, r *http.Request) error {
                return tt.err
            })

            res := do(t, h, newRequest(http.MethodGet, "/", ""))

            if res.status != tt.wantStatus {
                t.Errorf("got status %d; want %d", res.status, tt.wantStatus)
            }
            if res.message != tt.wantMessage {
                t.Errorf("got message %v; want %q", res.message, tt.wantMessage)
            }
        })
    }
}

func TestHandleWritesNothingExtraOnSuccess(t *testing.T) {
    app := newTestApplication(t, "development", nil)

    h := app.handle(func(w http.ResponseWriter, r *http.Request) error {
        return app.writeJSON(w, http.StatusAccepted, envelope{"ok": true}, nil)
    })

    res := do(t, h, newRequest(http.MethodGet, "/", ""))

    if res.status != http.StatusAccepted {
        t.Errorf("got status %d; want %d", res.status, http.StatusAccepted)
    }
    if res.message != nil {
        t.Errorf("unexpected message %v", res.message)
    }
}

func TestHandleErrorClearsReadinessOnLostConnection(t *testing.T) {
    app := newTestApplication(t, "production", nil)
    app.setDatabaseReady(true)

    h := app.handle(func(w http.ResponseWriter, r *http.Request) error {
        return &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
    })

    res := do(t, h, newRequest(http.MethodGet, "/exams", ""))

    if res.status != http.StatusServiceUnavailable {
        t.Errorf("got status %d; want %d", res.status, http.StatusServiceUnavailable)
    }
    if app.db.Ready() {
        t.Error("database still reported ready")
    }
    if got := testutil.ToFloat64(app.metrics.DatabaseReady); got != 0 {
        t.Errorf("database_ready gauge = %v; want 0", got)
    }
}
