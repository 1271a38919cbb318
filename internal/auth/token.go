// Package auth issues and verifies the bearer tokens handed out by /auth/login.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const issuer = "exams-api"

// ErrInvalidToken is returned for tokens that are malformed, forged or expired.
var ErrInvalidToken = errors.New("invalid or expired authentication token")

// Token is an issued bearer token.
type Token struct {
    Plaintext string    `json:"token"`
    Expiry    time.Time `json:"expiry"`
}

// Issuer signs tokens with an HMAC secret.
type Issuer struct {
    secret []byte
    ttl    time.Duration
    now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret. Tokens expire after ttl.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
    if secret == "" {
        return nil, errors.New("auth: signing secret is required")
    }
    if ttl <= 0 {
        return nil, errors.New("auth: token ttl must be positive")
    }

    return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token whose subject is userID.
func (i *Issuer) Issue(userID int64) (*Token, error) {
    now := i.now()
    expiry := now.Add(i.ttl)

    tok, err := jwt.NewBuilder().
        Issuer(issuer).
        Subject(strconv.FormatInt(userID, 10)).
        IssuedAt(now).
        Expiration(expiry).
        JwtID(uuid.NewString()).
        Build()
    if err != nil {
        return nil, fmt.Errorf("auth: build token: %w", err)
    }

    signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), i.secret))
    if err != nil {
        return nil, fmt.Errorf("auth: sign token: %w", err)
    }

    return &Token{Plaintext: string(signed), Expiry: expiry}, nil
}

// Verify checks the signature, issuer and expiry of plaintext and returns the user ID it
// was issued for.
func (i *Issuer) Verify(plaintext string) (int64, error) {
    tok, err := jwt.ParseString(plaintext,
        jwt.WithKey(jwa.HS256(), i.secret),
        jwt.WithValidate(true),
        jwt.WithIssuer(issuer),
        jwt.WithClock(jwt.ClockFunc(i.now)),
    )
    if err != nil {
        return 0, ErrInvalidToken
    }

    sub, ok := tok.Subject()
    if !ok {
        return 0, ErrInvalidToken
    }

    userID, err := strconv.ParseInt(sub, 10, 64)
    if err != nil || userID < 1 {
        return 0, ErrInvalidToken
    }

    return userID, nil
}
