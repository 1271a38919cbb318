package data

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE raised when a unique constraint is violated.
const pgUniqueViolation = "23505"

var (
    ErrRecordNotFound   = errors.New("record not found")
    ErrEditConflict     = errors.New("edit conflict")
    ErrDuplicateEmail   = errors.New("duplicate email")
    ErrAlreadySubmitted = errors.New("exam already submitted")
)

// Models puts models together in one struct.
type Models struct {
    User       UserModel
    Exam       ExamModel
    Question   QuestionModel
    Submission SubmissionModel
    Record     RecordModel
}

// NewModels returns a Models struct containing the initialized models.
func NewModels(pw *PoolWrapper) Models {
    return Models{
        User:       UserModel{DB: pw},
        Exam:       ExamModel{DB: pw},
        Question:   QuestionModel{DB: pw},
        Submission: SubmissionModel{DB: pw},
        Record:     RecordModel{DB: pw},
    }
}

// isUniqueViolation reports whether err was raised by the named unique constraint.
func isUniqueViolation(err error, constraint string) bool {
    var pgErr *pgconn.PgError
    if errors.As(err, &pgErr) {
        return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
    }

    return false
}
