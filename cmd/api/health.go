package main

import (
	"net/http"
)

const livenessMessage = "Online Examination Management System API is running..."

// livenessHandler answers without touching the database.
func (app *application) livenessHandler(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    w.Write([]byte(livenessMessage))
}

// setDatabaseReady mirrors database readiness into the exported gauge.
func (app *application) setDatabaseReady(ready bool) {
    if ready {
        app.metrics.DatabaseReady.Set(1)
        return
    }
    app.metrics.DatabaseReady.Set(0)
}

// readinessHandler reports whether the database can currently be reached.
func (app *application) readinessHandler(w http.ResponseWriter, r *http.Request) error {
    status := "ready"
    code := http.StatusOK
    database := "connected"

    if err := app.db.Ping(r.Context()); err != nil {
        status = "not ready"
        code = http.StatusServiceUnavailable
        database = "unavailable"
        app.logger.Debug("readiness check failed", "error", err.Error())
    }

    env := envelope{
        "status":   status,
        "database": database,
        "system_info": map[string]string{
            "environment": app.config.Env,
            "version":     version,
        },
    }

    return app.writeJSON(w, code, env, nil)
}
