package main

import (
	"net/http"

	"exams.zzh.net/internal/data"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/julienschmidt/httprouter"
)

// protect wraps h for a route that needs the database and the permission code.
func (app *application) protect(code string, h appHandler) http.HandlerFunc {
    return app.requireToken(app.requireDatabase(app.requirePermission(code, app.handle(h))))
}

// member wraps h for a route open to any authenticated user.
func (app *application) member(h appHandler) http.HandlerFunc {
    return app.requireToken(app.requireDatabase(app.requireAuthenticatedUser(app.handle(h))))
}

func (app *application) routes() http.Handler {
    router := httprouter.New()

    // Unknown paths and known paths with the wrong method both get the catch-all 404.
    router.NotFound = http.HandlerFunc(app.notFoundResponse)
    router.HandleMethodNotAllowed = false
    router.HandleOPTIONS = false

    router.HandlerFunc(http.MethodGet, "/", app.livenessHandler)
    router.HandlerFunc(http.MethodGet, "/healthz", app.handle(app.readinessHandler))
    router.Handler(http.MethodGet, "/metrics", app.metrics.Handler())

    // /auth
    router.HandlerFunc(http.MethodPost, "/auth/register", app.requireDatabase(app.handle(app.registerUserHandler)))
    router.HandlerFunc(http.MethodPost, "/auth/login", app.requireDatabase(app.handle(app.loginHandler)))
    router.HandlerFunc(http.MethodGet, "/auth/me", app.member(app.showCurrentUserHandler))

    // /users
    router.HandlerFunc(http.MethodGet, "/users", app.protect(data.PermUsersManage, app.listUsersHandler))
    router.HandlerFunc(http.MethodGet, "/users/:id", app.member(app.showUserHandler))
    router.HandlerFunc(http.MethodPatch, "/users/:id/role", app.protect(data.PermUsersManage, app.updateUserRoleHandler))

    // /exams
    router.HandlerFunc(http.MethodGet, "/exams", app.protect(data.PermExamsRead, app.listExamsHandler))
    router.HandlerFunc(http.MethodPost, "/exams", app.protect(data.PermExamsWrite, app.createExamHandler))
    router.HandlerFunc(http.MethodGet, "/exams/:id", app.protect(data.PermExamsRead, app.showExamHandler))
    router.HandlerFunc(http.MethodPatch, "/exams/:id", app.protect(data.PermExamsWrite, app.updateExamHandler))
    router.HandlerFunc(http.MethodDelete, "/exams/:id", app.protect(data.PermExamsWrite, app.deleteExamHandler))

    // /questions
    router.HandlerFunc(http.MethodGet, "/questions", app.protect(data.PermExamsRead, app.listQuestionsHandler))
    router.HandlerFunc(http.MethodPost, "/questions", app.protect(data.PermQuestionsWrite, app.createQuestionHandler))
    router.HandlerFunc(http.MethodGet, "/questions/:id", app.protect(data.PermExamsRead, app.showQuestionHandler))
    router.HandlerFunc(http.MethodPatch, "/questions/:id", app.protect(data.PermQuestionsWrite, app.updateQuestionHandler))
    router.HandlerFunc(http.MethodDelete, "/questions/:id", app.protect(data.PermQuestionsWrite, app.deleteQuestionHandler))

    // /submit
    router.HandlerFunc(http.MethodPost, "/submit/:id", app.protect(data.PermSubmissionsCreate, app.submitExamHandler))
    router.HandlerFunc(http.MethodGet, "/submit", app.member(app.listOwnSubmissionsHandler))
    router.HandlerFunc(http.MethodGet, "/submit/:id", app.protect(data.PermSubmissionsReview, app.listExamSubmissionsHandler))

    // /academic
    router.HandlerFunc(http.MethodGet, "/academic/records", app.member(app.listOwnRecordsHandler))
    router.HandlerFunc(http.MethodGet, "/academic/records/:id", app.protect(data.PermRecordsRead, app.listUserRecordsHandler))
    router.HandlerFunc(http.MethodPost, "/academic/records", app.protect(data.PermRecordsWrite, app.createRecordHandler))

    // Outermost first. Security headers, CORS and rate limiting run before any route
    // handler; the error handler and 404 fallback sit at the end of the chain.
    var handler http.Handler = router
    handler = app.authenticate(handler)
    handler = app.rateLimit(app.loginLimiter, isLoginPath)(handler)
    handler = app.rateLimit(app.apiLimiter, isAPIPath)(handler)
    handler = app.enableCORS(handler)
    handler = app.limitBody(handler)
    handler = app.secureHeaders(handler)
    handler = app.recoverPanic(handler)
    handler = middleware.RequestID(handler)
    handler = app.recordMetrics(handler)

    return handler
}
