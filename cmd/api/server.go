package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// serve listens until ctx is cancelled, then shuts down gracefully and waits for background
// tasks.
func (app *application) serve(ctx context.Context) error {
    srv := &http.Server{
        Addr:         app.config.Address(),
        Handler:      app.routes(),
        IdleTimeout:  time.Minute,
        ReadTimeout:  5 * time.Second,
        WriteTimeout: 10 * time.Second,
        ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
    }

    // The shutdownError channel is used to receive any errors returned by the
    // graceful Shutdown() function.
    shutdownError := make(chan error)

    go func() {
        <-ctx.Done()

        app.logger.Info("shutting down server", "addr", srv.Addr)

        shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
        defer cancel()

        err := srv.Shutdown(shutdownCtx)
        if err != nil {
            shutdownError <- err
            return
        }

        app.logger.Info("waiting for background tasks to complete", "addr", srv.Addr)

        app.wg.Wait()
        shutdownError <- nil
    }()

    app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", version)

    err := srv.ListenAndServe()
    if !errors.Is(err, http.ErrServerClosed) {
        return err
    }

    err = <-shutdownError
    if err != nil {
        return err
    }

    app.logger.Info("stopped server", "addr", srv.Addr)

    return nil
}
