package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// statusError carries the HTTP status that should be sent for err.
type statusError struct {
    status int
    err    error
}

func (e *statusError) Error() string {
    return e.err.Error()
}

func (e *statusError) Unwrap() error {
    return e.err
}

func (e *statusError) StatusCode() int {
    return e.status
}

// errorWithStatus attaches an HTTP status to err for the central error handler.
func errorWithStatus(status int, err error) error {
    return &statusError{status: status, err: err}
}

// appHandler is a handler that hands unexpected failures back to the central error handler
// instead of writing a response itself.
type appHandler func(w http.ResponseWriter, r *http.Request) error

// handle adapts h to http.HandlerFunc, routing any returned error to handleError.
func (app *application) handle(h appHandler) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if err := h(w, r); err != nil {
            app.handleError(w, r, err)
        }
    }
}

// logError() is a generic helper for logging an error message along with
// the current request method, URL and request ID as attributes in the log entry.
func (app *application) logError(r *http.Request, err error, status int) {
    var (
        method    = r.Method
        uri       = r.URL.RequestURI()
        requestID = middleware.GetReqID(r.Context())
    )

    app.logger.Error(err.Error(), "method", method, "uri", uri, "request_id", requestID, "status", status)
}

// handleError is the terminal error handler. The status comes from the error when it
// declares one and is 500 otherwise. Outside production the raw message is sent back;
// in production clients only ever see "Server error".
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
    // A lost connection is reported like a database that was never reached.
    if app.db.ReportError(err) {
        app.setDatabaseReady(false)
        app.logError(r, err, http.StatusServiceUnavailable)
        app.databaseUnavailableResponse(w, r)
        return
    }

    status := http.StatusInternalServerError

    var se interface{ StatusCode() int }
    if errors.As(err, &se) && se.StatusCode() >= 400 && se.StatusCode() <= 599 {
        status = se.StatusCode()
    }

    app.logError(r, err, status)

    message := "Server error"
    if app.verboseErrors {
        message = err.Error()
    }

    app.errorResponse(w, r, status, message)
}

// errorResponse() is a generic helper for sending JSON-formatted error messages to the client
// with a given status code. The message parameter is any so that validation maps can be
// sent as they are.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
    data := envelope{"message": message}

    err := app.writeJSON(w, status, data, nil)
    if err != nil {
        app.logError(r, err, status)
        w.WriteHeader(http.StatusInternalServerError)
    }
}

// notFoundResponse() answers every request no route group claimed.
func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
    app.errorResponse(w, r, http.StatusNotFound, "Route not found")
}

func (app *application) recordNotFoundResponse(w http.ResponseWriter, r *http.Request) {
    message := "the requested resource could not be found"
    app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
    app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
    message := "unable to update the record due to an edit conflict, please try again"
    app.errorResponse(w, r, http.StatusConflict, message)
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
    app.errorResponse(w, r, http.StatusConflict, message)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, message string) {
    app.errorResponse(w, r, http.StatusTooManyRequests, message)
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
    message := "invalid authentication credentials"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("WWW-Authenticate", "Bearer")

    message := "invalid or missing authentication token"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
    message := "you must be authenticated to access this resource"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
    message := "your user account doesn't have the necessary permissions to access this resource"
    app.errorResponse(w, r, http.StatusForbidden, message)
}

func (app *application) databaseUnavailableResponse(w http.ResponseWriter, r *http.Request) {
    app.errorResponse(w, r, http.StatusServiceUnavailable, "database unavailable")
}

// bodyTooLargeError is sent through handleError so it follows the same verbosity rules as
// other client errors.
func bodyTooLargeError(limit int64) error {
    return errorWithStatus(http.StatusRequestEntityTooLarge, fmt.Errorf("request body must not be larger than %d bytes", limit))
}
