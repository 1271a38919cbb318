package data

import (
	"context"
	"errors"
	"time"

	"exams.zzh.net/internal/validator"
	"github.com/jackc/pgx/v5"
)

// Question is a multiple choice question belonging to an exam.
type Question struct {
    ID          int64    `json:"id"`
    ExamID      int64    `json:"exam_id"`
    Prompt      string   `json:"prompt"`
    Options     []string `json:"options"`
    AnswerIndex int      `json:"answer_index"`
    Points      int      `json:"points"`
    Version     int      `json:"version"`
}

// ValidateQuestion validates the fields of q using validator v.
func ValidateQuestion(v *validator.Validator, q *Question) {
    v.Check(q.ExamID > 0, "exam_id", "must be provided")
    v.Check(q.Prompt != "", "prompt", "must be provided")
    v.Check(len(q.Prompt) <= 5_000, "prompt", "must not be more than 5000 bytes long")
    v.Check(len(q.Options) >= 2, "options", "must contain at least 2 options")
    v.Check(len(q.Options) <= 10, "options", "must not contain more than 10 options")
    v.Check(validator.Unique(q.Options), "options", "must not contain duplicate values")
    v.Check(q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options), "answer_index", "must refer to one of the options")
    v.Check(q.Points > 0, "points", "must be greater than 0")
    v.Check(q.Points <= 100, "points", "must not be more than 100")
}

// QuestionModel struct wraps a database connection pool wrapper.
type QuestionModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the questions table.
func (m QuestionModel) Insert(ctx context.Context, q *Question) error {
    query := `INSERT INTO questions (exam_id, prompt, options, answer_index, points)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, version`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, q.ExamID, q.Prompt, q.Options, q.AnswerIndex, q.Points).Scan(&q.ID, &q.Version)
}

// Get retrieves a question by ID.
func (m QuestionModel) Get(ctx context.Context, id int64) (*Question, error) {
    if id < 1 {
        return nil, ErrRecordNotFound
    }

    query := `SELECT id, exam_id, prompt, options, answer_index, points, version
                FROM questions
               WHERE id = $1`

    var q Question

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id).Scan(&q.ID, &q.ExamID, &q.Prompt, &q.Options, &q.AnswerIndex, &q.Points, &q.Version)
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &q, nil
}

// GetAllForExam returns the questions of an exam in creation order.
func (m QuestionModel) GetAllForExam(ctx context.Context, examID int64) ([]*Question, error) {
    query := `SELECT id, exam_id, prompt, options, answer_index, points, version
                FROM questions
               WHERE exam_id = $1
               ORDER BY id`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, examID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    questions := []*Question{}

    for rows.Next() {
        var q Question

        err := rows.Scan(&q.ID, &q.ExamID, &q.Prompt, &q.Options, &q.AnswerIndex, &q.Points, &q.Version)
        if err != nil {
            return nil, err
        }

        questions = append(questions, &q)
    }
    if err = rows.Err(); err != nil {
        return nil, err
    }

    return questions, nil
}

// Update updates a question, failing with ErrEditConflict if it changed since it was read.
func (m QuestionModel) Update(ctx context.Context, q *Question) error {
    query := `UPDATE questions
              SET prompt = $1, options = $2, answer_index = $3, points = $4, version = version + 1
              WHERE id = $5 AND version = $6
              RETURNING version`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, q.Prompt, q.Options, q.AnswerIndex, q.Points, q.ID, q.Version).Scan(&q.Version)
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return ErrEditConflict
        default:
            return err
        }
    }

    return nil
}

// Delete removes a question.
func (m QuestionModel) Delete(ctx context.Context, id int64) error {
    if id < 1 {
        return ErrRecordNotFound
    }

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    tag, err := m.DB.Pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
    if err != nil {
        return err
    }

    if tag.RowsAffected() == 0 {
        return ErrRecordNotFound
    }

    return nil
}
