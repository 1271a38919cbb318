package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/validator"
)

// canManageExam reports whether user may change exam and everything attached to it.
func canManageExam(user *data.User, exam *data.Exam) bool {
    return user.Role == data.RoleAdmin || exam.CreatedBy == user.ID
}

// loadExam fetches the :id exam, hiding unpublished exams from users who cannot write
// exams. It returns nil after writing a 404.
func (app *application) loadExam(w http.ResponseWriter, r *http.Request, id int64) (*data.Exam, error) {
    exam, err := app.models.Exam.Get(r.Context(), id)
    if err != nil {
        if errors.Is(err, data.ErrRecordNotFound) {
            app.recordNotFoundResponse(w, r)
            return nil, nil
        }
        return nil, err
    }

    user := app.contextGetUser(r)
    if !exam.Published && !user.Permissions().Include(data.PermExamsWrite) {
        app.recordNotFoundResponse(w, r)
        return nil, nil
    }

    return exam, nil
}

func (app *application) listExamsHandler(w http.ResponseWriter, r *http.Request) error {
    qs := r.URL.Query()
    v := validator.New()

    title := qs.Get("title")
    filter := data.ReadFilter(qs, v, "id", "id", "title", "created_at", "-id", "-title", "-created_at")

    if data.ValidateFilter(v, filter); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    user := app.contextGetUser(r)
    publishedOnly := !user.Permissions().Include(data.PermExamsWrite)

    exams, metadata, err := app.models.Exam.GetAll(r.Context(), title, publishedOnly, filter)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"exams": exams, "metadata": metadata}, nil)
}

func (app *application) createExamHandler(w http.ResponseWriter, r *http.Request) error {
    var input struct {
        Title           string     `json:"title"`
        Description     string     `json:"description"`
        DurationMinutes int        `json:"duration_minutes"`
        StartsAt        *time.Time `json:"starts_at"`
        Published       bool       `json:"published"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    exam := &data.Exam{
        Title:           input.Title,
        Description:     input.Description,
        DurationMinutes: input.DurationMinutes,
        StartsAt:        input.StartsAt,
        Published:       input.Published,
        CreatedBy:       app.contextGetUser(r).ID,
    }

    v := validator.New()

    if data.ValidateExam(v, exam); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    err = app.models.Exam.Insert(r.Context(), exam)
    if err != nil {
        return err
    }

    headers := make(http.Header)
    headers.Set("Location", fmt.Sprintf("/exams/%d", exam.ID))

    return app.writeJSON(w, http.StatusCreated, envelope{"exam": exam}, headers)
}

func (app *application) showExamHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    exam, err := app.loadExam(w, r, id)
    if exam == nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"exam": exam}, nil)
}

func (app *application) updateExamHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    exam, err := app.loadExam(w, r, id)
    if exam == nil {
        return err
    }

    if !canManageExam(app.contextGetUser(r), exam) {
        app.notPermittedResponse(w, r)
        return nil
    }

    // Pointer fields tell a missing key apart from its zero value.
    var input struct {
        Title           *string    `json:"title"`
        Description     *string    `json:"description"`
        DurationMinutes *int       `json:"duration_minutes"`
        StartsAt        *time.Time `json:"starts_at"`
        Published       *bool      `json:"published"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    if input.Title != nil {
        exam.Title = *input.Title
    }
    if input.Description != nil {
        exam.Description = *input.Description
    }
    if input.DurationMinutes != nil {
        exam.DurationMinutes = *input.DurationMinutes
    }
    if input.StartsAt != nil {
        exam.StartsAt = input.StartsAt
    }
    if input.Published != nil {
        exam.Published = *input.Published
    }

    v := validator.New()

    if data.ValidateExam(v, exam); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    err = app.models.Exam.Update(r.Context(), exam)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrEditConflict):
            app.editConflictResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"exam": exam}, nil)
}

func (app *application) deleteExamHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    exam, err := app.loadExam(w, r, id)
    if exam == nil {
        return err
    }

    if !canManageExam(app.contextGetUser(r), exam) {
        app.notPermittedResponse(w, r)
        return nil
    }

    err = app.models.Exam.Delete(r.Context(), exam.ID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"message": "exam successfully deleted"}, nil)
}
