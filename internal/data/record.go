package data

import (
	"context"
	"time"

	"exams.zzh.net/internal/validator"
	"github.com/jackc/pgx/v5"
)

// Record is an entry in a student's academic record.
type Record struct {
    ID         int64     `json:"id"`
    UserID     int64     `json:"user_id"`
    ExamID     *int64    `json:"exam_id,omitempty"`
    Course     string    `json:"course"`
    Term       string    `json:"term"`
    Grade      string    `json:"grade"`
    Credits    int       `json:"credits"`
    RecordedBy int64     `json:"recorded_by"`
    RecordedAt time.Time `json:"recorded_at"`
}

var grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F", "P", "I"}

// ValidateRecord validates the fields of r using validator v.
func ValidateRecord(v *validator.Validator, r *Record) {
    v.Check(r.UserID > 0, "user_id", "must be provided")
    v.Check(r.Course != "", "course", "must be provided")
    v.Check(len(r.Course) <= 200, "course", "must not be more than 200 bytes long")
    v.Check(r.Term != "", "term", "must be provided")
    v.Check(len(r.Term) <= 50, "term", "must not be more than 50 bytes long")
    v.Check(validator.PermittedValue(r.Grade, grades...), "grade", "must be a valid letter grade")
    v.Check(r.Credits >= 0 && r.Credits <= 30, "credits", "must be between 0 and 30")
}

// RecordModel struct wraps a database connection pool wrapper.
type RecordModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the academic_records table.
func (m RecordModel) Insert(ctx context.Context, r *Record) error {
    query := `INSERT INTO academic_records (user_id, exam_id, course, term, grade, credits, recorded_by)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, recorded_at`

    args := []any{r.UserID, r.ExamID, r.Course, r.Term, r.Grade, r.Credits, r.RecordedBy}

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, args...).Scan(&r.ID, &r.RecordedAt)
}

// GetAllForUser returns a user's academic record, most recent term first.
func (m RecordModel) GetAllForUser(ctx context.Context, userID int64) ([]*Record, error) {
    query := `SELECT id, user_id, exam_id, course, term, grade, credits, recorded_by, recorded_at
                FROM academic_records
               WHERE user_id = $1
               ORDER BY term DESC, course ASC`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, userID)
    if err != nil {
        return nil, err
    }

    return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Record, error) {
        var r Record
        err := row.Scan(&r.ID, &r.UserID, &r.ExamID, &r.Course, &r.Term, &r.Grade, &r.Credits, &r.RecordedBy, &r.RecordedAt)
        return &r, err
    })
}
