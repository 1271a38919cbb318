package data

import (
	"context"
	"time"

	"exams.zzh.net/internal/validator"
	"github.com/jackc/pgx/v5"
)

// Submission is one student's graded attempt at an exam. Answers maps question IDs to the
// index of the chosen option.
type Submission struct {
    ID          int64         `json:"id"`
    ExamID      int64         `json:"exam_id"`
    UserID      int64         `json:"user_id"`
    Answers     map[int64]int `json:"answers"`
    Score       int           `json:"score"`
    MaxScore    int           `json:"max_score"`
    SubmittedAt time.Time     `json:"submitted_at"`
}

// ValidateAnswers checks that every answer refers to a question of the exam and to one of
// that question's options.
func ValidateAnswers(v *validator.Validator, questions []*Question, answers map[int64]int) {
    v.Check(len(answers) > 0, "answers", "must contain at least one answer")

    byID := make(map[int64]*Question, len(questions))
    for _, q := range questions {
        byID[q.ID] = q
    }

    for id, choice := range answers {
        q, ok := byID[id]
        if !ok {
            v.AddError("answers", "must only reference questions of this exam")
            return
        }
        if choice < 0 || choice >= len(q.Options) {
            v.AddError("answers", "must refer to one of the question options")
            return
        }
    }
}

// Grade returns the points earned by answers and the maximum achievable points.
// Unanswered questions earn nothing.
func Grade(questions []*Question, answers map[int64]int) (score, maxScore int) {
    for _, q := range questions {
        maxScore += q.Points

        if choice, ok := answers[q.ID]; ok && choice == q.AnswerIndex {
            score += q.Points
        }
    }

    return score, maxScore
}

// SubmissionModel struct wraps a database connection pool wrapper.
type SubmissionModel struct {
    DB *PoolWrapper
}

// Insert stores a graded submission. A second submission for the same exam and user fails
// with ErrAlreadySubmitted.
func (m SubmissionModel) Insert(ctx context.Context, s *Submission) error {
    query := `INSERT INTO submissions (exam_id, user_id, answers, score, max_score)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, submitted_at`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, s.ExamID, s.UserID, s.Answers, s.Score, s.MaxScore).Scan(&s.ID, &s.SubmittedAt)
    if err != nil {
        switch {
        case isUniqueViolation(err, "submissions_exam_id_user_id_key"):
            return ErrAlreadySubmitted
        default:
            return err
        }
    }

    return nil
}

// GetAllForUser returns a user's submissions, newest first.
func (m SubmissionModel) GetAllForUser(ctx context.Context, userID int64) ([]*Submission, error) {
    query := `SELECT id, exam_id, user_id, answers, score, max_score, submitted_at
                FROM submissions
               WHERE user_id = $1
               ORDER BY submitted_at DESC`

    return m.query(ctx, query, userID)
}

// GetAllForExam returns every submission for an exam, best score first.
func (m SubmissionModel) GetAllForExam(ctx context.Context, examID int64) ([]*Submission, error) {
    query := `SELECT id, exam_id, user_id, answers, score, max_score, submitted_at
                FROM submissions
               WHERE exam_id = $1
               ORDER BY score DESC, submitted_at ASC`

    return m.query(ctx, query, examID)
}

func (m SubmissionModel) query(ctx context.Context, query string, arg int64) ([]*Submission, error) {
    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, arg)
    if err != nil {
        return nil, err
    }

    return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Submission, error) {
        var s Submission
        err := row.Scan(&s.ID, &s.ExamID, &s.UserID, &s.Answers, &s.Score, &s.MaxScore, &s.SubmittedAt)
        return &s, err
    })
}
