// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// DefaultNamespace is the fixed key the session snapshot is stored under.
const DefaultNamespace = "auth-storage"

// MinPasswordLength is the shortest password the register form accepts.
const MinPasswordLength = 6

var (
	// ErrSnapshotNotFound is returned by a SnapshotMedium when nothing was
	// ever written under the requested key.
	ErrSnapshotNotFound = errors.New("session snapshot not found")
	// ErrCorruptSnapshot indicates a persisted record that cannot be trusted.
	ErrCorruptSnapshot = errors.New("session snapshot corrupt")
	// ErrInvalidRegistration indicates that the registration form failed validation.
	ErrInvalidRegistration = errors.New("invalid registration")
	// ErrInvalidCredentials indicates that the login form failed validation.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated indicates an operation that needs a logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// User represents the authenticated account as reported by the backend.
// CreatedAt is kept verbatim as the server's timestamp string.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Session is the client's authentication state.
type Session struct {
	Token           string
	User            *User
	IsAuthenticated bool
}

// Empty reports whether the session holds neither token nor user.
func (s Session) Empty() bool {
	return s.Token == "" && s.User == nil && !s.IsAuthenticated
}

// Valid reports whether IsAuthenticated agrees with the presence of token and user.
func (s Session) Valid() bool {
	return s.IsAuthenticated == (s.Token != "" && s.User != nil)
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// SnapshotMedium is the port for durable session persistence.
type SnapshotMedium interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login form before it is sent.
func (c Credentials) Validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return errors.Join(ErrInvalidCredentials, errors.New("email is not a valid address"))
	}
	if c.Password == "" {
		return errors.Join(ErrInvalidCredentials, errors.New("password is required"))
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	ConfirmPassword string `json:"-"`
}

// Validate applies the register form rules.
func (r Registration) Validate() error {
	var problems []error
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, errors.New("name is required"))
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		problems = append(problems, errors.New("email is not a valid address"))
	}
	if r.Password != r.ConfirmPassword {
		problems = append(problems, errors.New("passwords do not match"))
	} else if len([]rune(r.Password)) < MinPasswordLength {
		problems = append(problems, errors.New("password must be at least 6 characters"))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidRegistration}, problems...)...)
}

// AuthGateway is the port for the backend's account endpoints.
type AuthGateway interface {
	Register(ctx context.Context, r Registration) (User, error)
	Login(ctx context.Context, c Credentials) (string, error)
	// Me returns the profile for token, or for the current session when token is empty.
	Me(ctx context.Context, token string) (User, error)
}
