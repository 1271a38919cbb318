package main

import (
	"errors"
	"net/http"

	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/validator"
)

func (app *application) submitExamHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    exam, err := app.loadExam(w, r, id)
    if exam == nil {
        return err
    }

    // Staff can see drafts through loadExam, but nobody can sit one.
    if !exam.Published {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    var input struct {
        Answers map[int64]int `json:"answers"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    questions, err := app.models.Question.GetAllForExam(r.Context(), exam.ID)
    if err != nil {
        return err
    }

    v := validator.New()

    if data.ValidateAnswers(v, questions, input.Answers); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    score, maxScore := data.Grade(questions, input.Answers)

    submission := &data.Submission{
        ExamID:   exam.ID,
        UserID:   app.contextGetUser(r).ID,
        Answers:  input.Answers,
        Score:    score,
        MaxScore: maxScore,
    }

    err = app.models.Submission.Insert(r.Context(), submission)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrAlreadySubmitted):
            app.conflictResponse(w, r, "you have already submitted this exam")
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusCreated, envelope{"submission": submission}, nil)
}

func (app *application) listOwnSubmissionsHandler(w http.ResponseWriter, r *http.Request) error {
    user := app.contextGetUser(r)

    submissions, err := app.models.Submission.GetAllForUser(r.Context(), user.ID)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"submissions": submissions}, nil)
}

func (app *application) listExamSubmissionsHandler(w http.ResponseWriter, r *http.Request) error {
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

    submissions, err := app.models.Submission.GetAllForExam(r.Context(), exam.ID)
    if err != nil {
        return err
    }

    return app.writeJSON(w, http.StatusOK, envelope{"exam": exam, "submissions": submissions}, nil)
}
