package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exams.zzh.net/internal/validator"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// AnonymousUser represents a request without a valid bearer token.
var AnonymousUser = &User{}

// User represents an individual account.
type User struct {
    ID        int64     `json:"id"`
    CreatedAt time.Time `json:"created_at"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Password  password  `json:"-"`
    Role      string    `json:"role"`
    Version   int       `json:"-"`
}

// IsAnonymous checks if a User instance is the AnonymousUser.
func (u *User) IsAnonymous() bool {
    return u == AnonymousUser
}

// Permissions returns the permission codes granted by the user's role.
func (u *User) Permissions() Permissions {
    return PermissionsForRole(u.Role)
}

type password struct {
    // The plaintext field is a *pointer* to a string, so that we're able to distinguish between
    // a password not provided at all, versus a password which is in fact the empty string "".
    plaintext *string
    hash      []byte
}

// Set calculates the bcrypt hash of a plaintext password and stores both the
// hash and the plaintext versions in the p struct.
func (p *password) Set(plaintext string) error {
    hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
    if err != nil {
        return err
    }

    p.plaintext = &plaintext
    p.hash = hash

    return nil
}

// Matches checks whether the provided plaintext password matches the hashed password stored
// in the struct, and returns true if it does.
func (p *password) Matches(plaintext string) (bool, error) {
    err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintext))
    if err != nil {
        switch {
        case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
            return false, nil
        default:
            return false, err
        }
    }

    return true, nil
}

// ValidateEmail validates an email address using validator v.
func ValidateEmail(v *validator.Validator, email string) {
    v.Check(email != "", "email", "must be provided")
    v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

// ValidatePassword validates a password using validator v.
func ValidatePassword(v *validator.Validator, password string) {
    v.Check(password != "", "password", "must be provided")
    v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
    v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// ValidateRole checks that role is one of Roles.
func ValidateRole(v *validator.Validator, role string) {
    v.Check(validator.PermittedValue(role, Roles...), "role", "must be one of student, teacher or admin")
}

// ValidateUser validates the fields of user using validator v.
func ValidateUser(v *validator.Validator, user *User) {
    v.Check(user.Name != "", "name", "must be provided")
    v.Check(len(user.Name) <= 500, "name", "must not be more than 500 bytes long")

    ValidateEmail(v, user.Email)
    ValidateRole(v, user.Role)

    if user.Password.plaintext != nil {
        ValidatePassword(v, *user.Password.plaintext)
    }

    if user.Password.hash == nil {
        panic("missing hashed password for user")
    }
}

// UserModel struct wraps a database connection pool wrapper.
type UserModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the users table.
func (m UserModel) Insert(ctx context.Context, user *User) error {
    query := `INSERT INTO users (name, email, password_hash, role)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at, version`

    args := []any{user.Name, user.Email, user.Password.hash, user.Role}

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.Version)
    if err != nil {
        switch {
        case isUniqueViolation(err, "users_email_key"):
            return ErrDuplicateEmail
        default:
            return err
        }
    }

    return nil
}

func scanUser(row pgx.Row) (*User, error) {
    var user User

    err := row.Scan(
        &user.ID,
        &user.CreatedAt,
        &user.Name,
        &user.Email,
        &user.Password.hash,
        &user.Role,
        &user.Version,
    )
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &user, nil
}

// Get retrieves a user by ID.
func (m UserModel) Get(ctx context.Context, id int64) (*User, error) {
    if id < 1 {
        return nil, ErrRecordNotFound
    }

    query := `SELECT id, created_at, name, email, password_hash, role, version
                FROM users
               WHERE id = $1`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    return scanUser(m.DB.Pool.QueryRow(ctx, query, id))
}

// GetByEmail retrives a user from the users table based on its email address.
func (m UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
    query := `SELECT id, created_at, name, email, password_hash, role, version
                FROM users
               WHERE email = $1`

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    return scanUser(m.DB.Pool.QueryRow(ctx, query, email))
}

// GetAll returns a page of users, optionally restricted to one role.
func (m UserModel) GetAll(ctx context.Context, role string, filter Filter) ([]*User, Metadata, error) {
    query := fmt.Sprintf(`
        SELECT count(*) OVER(), id, created_at, name, email, password_hash, role, version
          FROM users
         WHERE (role = $1 OR $1 = '')
         ORDER BY %s %s, id ASC
         LIMIT $2 OFFSET $3`, filter.sortColumn(), filter.sortDirection())

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, role, filter.limit(), filter.offset())
    if err != nil {
        return nil, Metadata{}, err
    }
    defer rows.Close()

    totalRecords := 0
    users := []*User{}

    for rows.Next() {
        var user User

        err := rows.Scan(
            &totalRecords,
            &user.ID,
            &user.CreatedAt,
            &user.Name,
            &user.Email,
            &user.Password.hash,
            &user.Role,
            &user.Version,
        )
        if err != nil {
            return nil, Metadata{}, err
        }

        users = append(users, &user)
    }
    if err = rows.Err(); err != nil {
        return nil, Metadata{}, err
    }

    return users, calculateMetadata(totalRecords, filter.Page, filter.PageSize), nil
}

// Update updates a record in the users table.
func (m UserModel) Update(ctx context.Context, user *User) error {
    query := `UPDATE users
              SET name = $1, email = $2, password_hash = $3, role = $4, version = version + 1
              WHERE id = $5 AND version = $6
              RETURNING version`

    args := []any{
        user.Name,
        user.Email,
        user.Password.hash,
        user.Role,
        user.ID,
        user.Version,
    }

    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&user.Version)
    if err != nil {
        switch {
        case isUniqueViolation(err, "users_email_key"):
            return ErrDuplicateEmail
        case errors.Is(err, pgx.ErrNoRows):
            return ErrEditConflict
        default:
            return err
        }
    }

    return nil
}
