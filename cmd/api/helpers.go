package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type envelope map[string]any

// readIDParam reads the ":id" route parameter and converts it to a positive int64.
func (app *application) readIDParam(r *http.Request) (int64, error) {
    params := httprouter.ParamsFromContext(r.Context())

    id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
    if err != nil || id < 1 {
        return 0, errors.New("invalid id parameter")
    }

    return id, nil
}

// readInt64 reads a positive integer from the query string. A missing key yields 0.
func (app *application) readInt64(qs url.Values, key string) (int64, error) {
    s := qs.Get(key)
    if s == "" {
        return 0, nil
    }

    i, err := strconv.ParseInt(s, 10, 64)
    if err != nil || i < 1 {
        return 0, fmt.Errorf("%s must be a positive integer", key)
    }

    return i, nil
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
    js, err := json.MarshalIndent(data, "", "\t")
    if err != nil {
        return err
    }

    js = append(js, '\n')

    for key, value := range headers {
        w.Header()[key] = value
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    w.Write(js)

    return nil
}

// readJSON decodes a single JSON value from the request body into dst. The returned errors
// carry a 400 status, or 413 when the body exceeds the limit set by limitBody.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()

    err := dec.Decode(dst)
    if err != nil {
        var syntaxError *json.SyntaxError
        var unmarshalTypeError *json.UnmarshalTypeError
        var invalidUnmarshalError *json.InvalidUnmarshalError
        var maxBytesError *http.MaxBytesError

        switch {
        case errors.As(err, &syntaxError):
            return badRequest(fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset))

        case errors.Is(err, io.ErrUnexpectedEOF):
            return badRequest(errors.New("body contains badly-formed JSON"))

        case errors.As(err, &unmarshalTypeError):
            if unmarshalTypeError.Field != "" {
                return badRequest(fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field))
            }
            return badRequest(fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset))

        case errors.Is(err, io.EOF):
            return badRequest(errors.New("body must not be empty"))

        case strings.HasPrefix(err.Error(), "json: unknown field "):
            fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
            return badRequest(fmt.Errorf("body contains unknown key %s", fieldName))

        case errors.As(err, &maxBytesError):
            return bodyTooLargeError(maxBytesError.Limit)

        case errors.As(err, &invalidUnmarshalError):
            panic(err)

        default:
            return err
        }
    }

    err = dec.Decode(&struct{}{})
    if !errors.Is(err, io.EOF) {
        return badRequest(errors.New("body must only contain a single JSON value"))
    }

    return nil
}

func badRequest(err error) error {
    return errorWithStatus(http.StatusBadRequest, err)
}

// background runs fn in a goroutine tracked by app.wg so that graceful shutdown waits for
// it. Panics are recovered and logged.
func (app *application) background(fn func()) {
    app.wg.Add(1)

    go func() {
        defer app.wg.Done()

        defer func() {
            if err := recover(); err != nil {
                app.logger.Error(fmt.Sprintf("%v", err))
            }
        }()

        fn()
    }()
}
