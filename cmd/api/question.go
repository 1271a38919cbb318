package main

import (
	"errors"
	"fmt"
	"net/http"

	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/validator"
)

// questionView is what users without questions:write see; it leaves out the answer.
type questionView struct {
    ID      int64    `json:"id"`
    ExamID  int64    `json:"exam_id"`
    Prompt  string   `json:"prompt"`
    Options []string `json:"options"`
    Points  int      `json:"points"`
}

// presentQuestions hides answers unless user can write questions.
func presentQuestions(user *data.User, questions []*data.Question) any {
    if user.Permissions().Include(data.PermQuestionsWrite) {
        return questions
    }

    views := make([]questionView, 0, len(questions))
    for _, q := range questions {
        views = append(views, questionView{
            ID:      q.ID,
            ExamID:  q.ExamID,
            Prompt:  q.Prompt,
            Options: q.Options,
            Points:  q.Points,
        })
    }

    return views
}

// loadManagedQuestion fetches the :id question and checks that the current user manages its
// exam. It returns nil after writing a 404 or 403.
func (app *application) loadManagedQuestion(w http.ResponseWriter, r *http.Request) (*data.Question, error) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil, nil
    }

    question, err := app.models.Question.Get(r.Context(), id)
    if err != nil {
        if errors.Is(err, data.ErrRecordNotFound) {
            app.recordNotFoundResponse(w, r)
            return nil, nil
        }
        return nil, err
    }

    exam, err := app.loadExam(w, r, question.ExamID)
    if exam == nil {
        return nil, err
    }

    if !canManageExam(app.contextGetUser(r), exam) {
        app.notPermittedResponse(w, r)
        return nil, nil
    }

    return question, nil
}

func (app *application) listQuestionsHandler(w http.ResponseWriter, r *http.Request) error {
    examID, err := app.readInt64(r.URL.Query(), "exam_id")
    if err != nil || examID == 0 {
        v := validator.New()
        v.AddError("exam_id", "must be provided as a positive integer")
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    exam, err := app.loadExam(w, r, examID)
    if exam == nil {
        return err
    }

    questions, err := app.models.Question.GetAllForExam(r.Context(), exam.ID)
    if err != nil {
        return err
    }

    user := app.contextGetUser(r)

    return app.writeJSON(w, http.StatusOK, envelope{"questions": presentQuestions(user, questions)}, nil)
}

func (app *application) createQuestionHandler(w http.ResponseWriter, r *http.Request) error {
    var input struct {
        ExamID      int64    `json:"exam_id"`
        Prompt      string   `json:"prompt"`
        Options     []string `json:"options"`
        AnswerIndex int      `json:"answer_index"`
        Points      int      `json:"points"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    question := &data.Question{
        ExamID:      input.ExamID,
        Prompt:      input.Prompt,
        Options:     input.Options,
        AnswerIndex: input.AnswerIndex,
        Points:      input.Points,
    }

    v := validator.New()

    if data.ValidateQuestion(v, question); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    exam, err := app.loadExam(w, r, question.ExamID)
    if exam == nil {
        return err
    }

    if !canManageExam(app.contextGetUser(r), exam) {
        app.notPermittedResponse(w, r)
        return nil
    }

    err = app.models.Question.Insert(r.Context(), question)
    if err != nil {
        return err
    }

    headers := make(http.Header)
    headers.Set("Location", fmt.Sprintf("/questions/%d", question.ID))

    return app.writeJSON(w, http.StatusCreated, envelope{"question": question}, headers)
}

func (app *application) showQuestionHandler(w http.ResponseWriter, r *http.Request) error {
    id, err := app.readIDParam(r)
    if err != nil {
        app.recordNotFoundResponse(w, r)
        return nil
    }

    question, err := app.models.Question.Get(r.Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    exam, err := app.loadExam(w, r, question.ExamID)
    if exam == nil {
        return err
    }

    user := app.contextGetUser(r)
    views := presentQuestions(user, []*data.Question{question})

    var out any = question
    if v, ok := views.([]questionView); ok {
        out = v[0]
    }

    return app.writeJSON(w, http.StatusOK, envelope{"question": out}, nil)
}

func (app *application) updateQuestionHandler(w http.ResponseWriter, r *http.Request) error {
    question, err := app.loadManagedQuestion(w, r)
    if question == nil {
        return err
    }

    var input struct {
        Prompt      *string  `json:"prompt"`
        Options     []string `json:"options"`
        AnswerIndex *int     `json:"answer_index"`
        Points      *int     `json:"points"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        return err
    }

    if input.Prompt != nil {
        question.Prompt = *input.Prompt
    }
    if input.Options != nil {
        question.Options = input.Options
    }
    if input.AnswerIndex != nil {
        question.AnswerIndex = *input.AnswerIndex
    }
    if input.Points != nil {
        question.Points = *input.Points
    }

    v := validator.New()

    if data.ValidateQuestion(v, question); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return nil
    }

    err = app.models.Question.Update(r.Context(), question)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrEditConflict):
            app.editConflictResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"question": question}, nil)
}

func (app *application) deleteQuestionHandler(w http.ResponseWriter, r *http.Request) error {
    question, err := app.loadManagedQuestion(w, r)
    if question == nil {
        return err
    }

    err = app.models.Question.Delete(r.Context(), question.ID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.recordNotFoundResponse(w, r)
            return nil
        default:
            return err
        }
    }

    return app.writeJSON(w, http.StatusOK, envelope{"message": "question successfully deleted"}, nil)
}
