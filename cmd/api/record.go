package main

import (
	"errors"
	"net/http"

	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/validator"
)

func (app *application) listOwnRecordsHandler(w http.ResponseWriter, r *http.Request) error {
    user := app.contextGetUser(r)

    records, err := app.models.Record.GetAllForUser(r.Context(), user.ID)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"records": records}, nil)
}

func (app *application) listUserRecordsHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    student, err := app.models.User.Get(r.Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    records, err := app.models.Record.GetAllForUser(r.Context(), student.ID)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"user": student, "records": records}, nil)
}

func (app *application) createRecordHandler(w http.ResponseWriter, r *http.Request) error {
    var input struct {
        UserID  int64  `json:"user_id"`
        ExamID  *int64 `json:"exam_id"`
        Course  string `json:"course"`
        Term    string `json:"term"`
        Grade   string `json:"grade"`
        Credits int    `json:"credits"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    record := &data.Record{
        UserID:     input.UserID,
        ExamID:     input.ExamID,
        Course:     input.Course,
        Term:       input.Term,
        Grade:      input.Grade,
        Credits:    input.Credits,
        RecordedBy: app.contextGetUser(r).ID,
    }

    v := validator.New()

    if data.ValidateRecord(v, record); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    _, err = app.models.User.Get(r.Context(), record.UserID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            v.AddError("user_id", "user does not exist")
        default:
            return err
        }
    }

    if record.ExamID != nil {
        _, err = app.models.Exam.Get(r.Context(), *record.ExamID)
        if err != nil {
            switch {
            case errors.Is(err, data.ErrRecordNotFound):
                v.AddError("exam_id", "exam does not exist")
            default:
                return err
            }
        }
    }

    if !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    err = app.models.Record.Insert(r.Context(), record)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusCreated, envelope{"record": record}, nil)
}
