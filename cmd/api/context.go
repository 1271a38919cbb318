package main

import (
	"context"
	"net/http"

	"exams.zzh.net/internal/data"
)

type examsContextKey string

const (
    userIDContextKey = examsContextKey("user_id")
    userContextKey   = examsContextKey("user")
    invalidTokenKey  = examsContextKey("invalid_token")
)

// contextSetUserID stores the subject of a verified bearer token. Zero means anonymous.
func (app *application) contextSetUserID(r *http.Request, id int64) *http.Request {
    ctx := context.WithValue(r.Context(), userIDContextKey, id)
    return r.WithContext(ctx)
}

func (app *application) contextGetUserID(r *http.Request) int64 {
    id, _ := r.Context().Value(userIDContextKey).(int64)
    return id
}

// contextSetInvalidToken marks the request as carrying an Authorization header that failed
// verification.
func (app *application) contextSetInvalidToken(r *http.Request) *http.Request {
    ctx := context.WithValue(r.Context(), invalidTokenKey, true)
    return r.WithContext(ctx)
}

func (app *application) contextHasInvalidToken(r *http.Request) bool {
    invalid, _ := r.Context().Value(invalidTokenKey).(bool)
    return invalid
}

// contextSetUser returns a new copy of the request with the provided User struct added to its
// embedded context.
func (app *application) contextSetUser(r *http.Request, user *data.User) *http.Request {
    ctx := context.WithValue(r.Context(), userContextKey, user)
    return r.WithContext(ctx)
}

// contextGetUser retrieves the User loaded by requireAuthenticatedUser. Calling it on a route
// without that middleware is a programming error, so it panics.
func (app *application) contextGetUser(r *http.Request) *data.User {
    user, ok := r.Context().Value(userContextKey).(*data.User)
    if !ok {
        panic("missing user value in request context")
    }

    return user
}
