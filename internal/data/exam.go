package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exams.zzh.net/internal/validator"
	"github.com/jackc/pgx/v5"
)

// Exam is a scheduled examination owned by the teacher who created it.
type Exam struct {
    ID              int64      `json:"id"`
    CreatedAt       time.Time  `json:"created_at"`
    Title           string     `json:"title"`
    Description     string     `json:"description,omitempty"`
    DurationMinutes int        `json:"duration_minutes"`
    StartsAt        *time.Time `json:"starts_at,omitempty"`
    Published       bool       `json:"published"`
    CreatedBy       int64      `json:"created_by"`
    Version         int        `json:"version"`
}

// ValidateExam validates the fields of exam using validator v.
func ValidateExam(v *validator.Validator, exam *Exam) {
    v.Check(exam.Title != "", "title", "must be provided")
    v.Check(len(exam.Title) <= 500, "title", "must not be more than 500 bytes long")
    v.Check(len(exam.Description) <= 10_000, "description", "must not be more than 10000 bytes long")
    v.Check(exam.DurationMinutes > 0, "duration_minutes", "must be greater than 0")
    v.Check(exam.DurationMinutes <= 24*60, "duration_minutes", "must not be more than one day")
}

// ExamModel struct wraps a database connection pool wrapper.
type ExamModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the exams table.
func (m ExamModel) Insert(ctx context.Context, exam *Exam) error {
    query := `INSERT INTO exams (title, description, duration_minutes, starts_at, published, created_by)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING id, created_at, version`

    args := []any{exam.Title, exam.Description, exam.DurationMinutes, exam.StartsAt, exam.Published, exam.CreatedBy}

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, args...).Scan(&exam.ID, &exam.CreatedAt, &exam.Version)
}

// Get retrieves an exam by ID.
func (m ExamModel) Get(ctx context.Context, id int64) (*Exam, error) {
    if id < 1 {
        return nil, ErrRecordNotFound
    }

    query := `SELECT id, created_at, title, description, duration_minutes, starts_at, published, created_by, version
                FROM exams
               WHERE id = $1`

    var exam Exam

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id).Scan(
        &exam.ID,
        &exam.CreatedAt,
        &exam.Title,
        &exam.Description,
        &exam.DurationMinutes,
        &exam.StartsAt,
        &exam.Published,
        &exam.CreatedBy,
        &exam.Version,
    )
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &exam, nil
}

// GetAll returns a page of exams whose title contains title. When publishedOnly is set,
// drafts are left out.
func (m ExamModel) GetAll(ctx context.Context, title string, publishedOnly bool, filter Filter) ([]*Exam, Metadata, error) {
    query := fmt.Sprintf(`
        SELECT count(*) OVER(), id, created_at, title, description, duration_minutes, starts_at, published, created_by, version
          FROM exams
         WHERE (title ILIKE '%%' || $1 || '%%' OR $1 = '')
           AND (published OR NOT $2)
         ORDER BY %s %s, id ASC
         LIMIT $3 OFFSET $4`, filter.sortColumn(), filter.sortDirection())

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, title, publishedOnly, filter.limit(), filter.offset())
    if err != nil {
        return nil, Metadata{}, err
    }
    defer rows.Close()

    totalRecords := 0
    exams := []*Exam{}

    for rows.Next() {
        var exam Exam

        err := rows.Scan(
            &totalRecords,
            &exam.ID,
            &exam.CreatedAt,
            &exam.Title,
            &exam.Description,
            &exam.DurationMinutes,
            &exam.StartsAt,
            &exam.Published,
            &exam.CreatedBy,
            &exam.Version,
        )
        if err != nil {
            return nil, Metadata{}, err
        }

        exams = append(exams, &exam)
    }
    if err = rows.Err(); err != nil {
        return nil, Metadata{}, err
    }

    return exams, calculateMetadata(totalRecords, filter.Page, filter.PageSize), nil
}

// Update updates an exam, failing with ErrEditConflict if it changed since it was read.
func (m ExamModel) Update(ctx context.Context, exam *Exam) error {
    query := `UPDATE exams
              SET title = $1, description = $2, duration_minutes = $3, starts_at = $4, published = $5, version = version + 1
              WHERE id = $6 AND version = $7
              RETURNING version`

    args := []any{
        exam.Title,
        exam.Description,
        exam.DurationMinutes,
        exam.StartsAt,
        exam.Published,
        exam.ID,
        exam.Version,
    }

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&exam.Version)
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

// Delete removes an exam together with its questions and submissions.
func (m ExamModel) Delete(ctx context.Context, id int64) error {
    if id < 1 {
        return ErrRecordNotFound
    }

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    tag, err := m.DB.Pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
    if err != nil {
        return err
    }

    if tag.RowsAffected() == 0 {
        return ErrRecordNotFound
    }

    return nil
}
