package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"exams.zzh.net/internal/auth"
	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/ratelimit"
	"github.com/tomasen/realip"
	"golang.org/x/time/rate"
)

// securityHeaders are the hardened defaults sent with every response.
var securityHeaders = [][2]string{
    {"Content-Security-Policy", "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'self';img-src 'self' data:;object-src 'none';script-src 'self';script-src-attr 'none';style-src 'self' https: 'unsafe-inline';upgrade-insecure-requests"},
    {"Cross-Origin-Opener-Policy", "same-origin"},
    {"Cross-Origin-Resource-Policy", "same-origin"},
    {"Origin-Agent-Cluster", "?1"},
    {"Referrer-Policy", "no-referrer"},
    {"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
    {"X-Content-Type-Options", "nosniff"},
    {"X-DNS-Prefetch-Control", "off"},
    {"X-Download-Options", "noopen"},
    {"X-Frame-Options", "SAMEORIGIN"},
    {"X-Permitted-Cross-Domain-Policies", "none"},
    {"X-XSS-Protection", "0"},
}

// apiPrefixes are the mount points covered by the general request limit.
var apiPrefixes = []string{"/api", "/auth", "/users", "/exams", "/questions", "/submit", "/academic"}

func hasPathPrefix(path, prefix string) bool {
    return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAPIPath(r *http.Request) bool {
    for _, prefix := range apiPrefixes {
        if hasPathPrefix(r.URL.Path, prefix) {
            return true
        }
    }
    return false
}

func isLoginPath(r *http.Request) bool {
    return hasPathPrefix(r.URL.Path, "/auth/login")
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if err := recover(); err != nil {
                // Make Go's HTTP server close the connection after the response has been sent.
                w.Header().Set("Connection", "close")
                app.handleError(w, r, fmt.Errorf("%v", err))
            }
        }()

        next.ServeHTTP(w, r)
    })
}

func (app *application) secureHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        for _, h := range securityHeaders {
            w.Header().Set(h[0], h[1])
        }

        next.ServeHTTP(w, r)
    })
}

// limitBody rejects requests whose declared length exceeds MaxBodyBytes and caps the
// readable body for the rest.
func (app *application) limitBody(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        limit := app.config.MaxBodyBytes

        if r.ContentLength > limit {
            app.handleError(w, r, bodyTooLargeError(limit))
            return
        }

        r.Body = http.MaxBytesReader(w, r.Body, limit)

        next.ServeHTTP(w, r)
    })
}

func (app *application) enableCORS(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Add("Vary", "Origin")
        w.Header().Add("Vary", "Access-Control-Request-Method")

        origin := r.Header.Get("Origin")
        preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

        if origin != "" && origin == app.config.CORSOrigin {
            w.Header().Set("Access-Control-Allow-Origin", origin)
            w.Header().Set("Access-Control-Allow-Credentials", "true")

            if preflight {
                w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH")
                w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
            }
        }

        // Preflights end here whether or not the origin is trusted; an untrusted origin
        // simply gets no Allow-* headers.
        if preflight {
            w.WriteHeader(http.StatusNoContent)
            return
        }

        next.ServeHTTP(w, r)
    })
}

// clientIP identifies the caller for rate limiting. Forwarding headers are only believed
// when the direct peer is one of the trusted proxies; otherwise the socket address wins.
func (app *application) clientIP(r *http.Request) string {
    host, _, err := net.SplitHostPort(r.RemoteAddr)
    if err != nil {
        host = r.RemoteAddr
    }

    peer, err := netip.ParseAddr(host)
    if err != nil {
        return host
    }
    peer = peer.Unmap()

    for _, prefix := range app.trustedProxies {
        if prefix.Contains(peer) {
            if ip := realip.FromRequest(r); ip != "" {
                return ip
            }
            break
        }
    }

    return peer.String()
}

// rateLimit enforces the sliding-window limiter l on requests matched by applies. Clients
// are identified by clientIP. Store failures let the request through.
func (app *application) rateLimit(l *ratelimit.Limiter, applies func(*http.Request) bool) func(http.Handler) http.Handler {
    policy := l.Policy()
    logRejection := &rate.Sometimes{Interval: 10 * time.Second}

    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if !app.limiterEnabled.Load() || !applies(r) {
                next.ServeHTTP(w, r)
                return
            }

            ip := app.clientIP(r)

            res, err := l.Allow(r.Context(), ip)
            if err != nil {
                app.logger.Warn("rate limit store unavailable", "policy", policy.Name, "error", err.Error())
                next.ServeHTTP(w, r)
                return
            }

            w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Max))
            w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
            w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

            if !res.Allowed {
                app.metrics.RateLimitRejected.WithLabelValues(policy.Name).Inc()
                logRejection.Do(func() {
                    app.logger.Warn("rate limit exceeded", "policy", policy.Name, "ip", ip, "path", r.URL.Path)
                })

                app.rateLimitExceededResponse(w, r, policy.Message)
                return
            }

            next.ServeHTTP(w, r)
        })
    }
}

// authenticate verifies a bearer token if one is present and records its subject in the
// request context. It never rejects: a bad token leaves the request anonymous and is only
// reported by requireAuthenticatedUser, so public routes and the 404 fallback still answer.
// It does not touch the database.
func (app *application) authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Add("Vary", "Authorization")

        authorizationHeader := r.Header.Get("Authorization")

        if authorizationHeader == "" {
            next.ServeHTTP(w, app.contextSetUserID(r, 0))
            return
        }

        headerParts := strings.Split(authorizationHeader, " ")
        if len(headerParts) != 2 || headerParts[0] != "Bearer" {
            next.ServeHTTP(w, app.contextSetInvalidToken(app.contextSetUserID(r, 0)))
            return
        }

        userID, err := app.tokens.Verify(headerParts[1])
        if err != nil {
            if !errors.Is(err, auth.ErrInvalidToken) {
                app.logger.Debug("token verification failed", "error", err.Error())
            }
            next.ServeHTTP(w, app.contextSetInvalidToken(app.contextSetUserID(r, 0)))
            return
        }

        next.ServeHTTP(w, app.contextSetUserID(r, userID))
    })
}

// requireDatabase answers 503 while the persistence connector has not established a
// connection.
func (app *application) requireDatabase(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if !app.db.Ready() {
            app.databaseUnavailableResponse(w, r)
            return
        }

        next.ServeHTTP(w, r)
    }
}

// rejectAnonymous answers 401 for requests without a valid bearer token and reports
// whether it did.
func (app *application) rejectAnonymous(w http.ResponseWriter, r *http.Request) bool {
    switch {
    case app.contextHasInvalidToken(r):
        app.invalidAuthenticationTokenResponse(w, r)
        return true
    case app.contextGetUserID(r) == 0:
        app.authenticationRequiredResponse(w, r)
        return true
    }

    return false
}

// requireToken rejects anonymous requests without touching the database, so protected
// routes answer 401 rather than 503 while the database is down.
func (app *application) requireToken(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if app.rejectAnonymous(w, r) {
            return
        }

        next.ServeHTTP(w, r)
    }
}

// requireAuthenticatedUser loads the token's user into the request context.
func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if app.rejectAnonymous(w, r) {
            return
        }

        userID := app.contextGetUserID(r)

        user, err := app.models.User.Get(r.Context(), userID)
        if err != nil {
            switch {
            case errors.Is(err, data.ErrRecordNotFound):
                app.invalidAuthenticationTokenResponse(w, r)
            default:
                app.handleError(w, r, err)
            }
            return
        }

        next.ServeHTTP(w, app.contextSetUser(r, user))
    }
}

func (app *application) requirePermission(code string, next http.HandlerFunc) http.HandlerFunc {
    fn := func(w http.ResponseWriter, r *http.Request) {
        user := app.contextGetUser(r)

        if !user.Permissions().Include(code) {
            app.notPermittedResponse(w, r)
            return
        }

        next.ServeHTTP(w, r)
    }

    return app.requireAuthenticatedUser(fn)
}

// The metricsResponseWriter type wraps an existing http.ResponseWriter and also
// contains a field for recording the response status code, and a boolen flag
// to indicate whether the response headers have already been written.
type metricsResponseWriter struct {
    wrapped       http.ResponseWriter
    statusCode    int
    headerWritten bool
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
    return &metricsResponseWriter{
        wrapped:    w,
        statusCode: http.StatusOK,
    }
}

func (mrw *metricsResponseWriter) Header() http.Header {
    return mrw.wrapped.Header()
}

func (mrw *metricsResponseWriter) WriteHeader(statusCode int) {
    mrw.wrapped.WriteHeader(statusCode)

    if !mrw.headerWritten {
        mrw.statusCode = statusCode
        mrw.headerWritten = true
    }
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
    mrw.headerWritten = true
    return mrw.wrapped.Write(b)
}

// Unwrap returns the existing wrapped http.ResponseWriter.
func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
    return mrw.wrapped
}

func (app *application) recordMetrics(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        app.metrics.RequestsReceived.Inc()

        mrw := newMetricsResponseWriter(w)

        next.ServeHTTP(mrw, r)

        app.metrics.ResponsesByStatus.WithLabelValues(strconv.Itoa(mrw.statusCode)).Inc()
        app.metrics.RequestDuration.Observe(time.Since(start).Seconds())
    })
}
