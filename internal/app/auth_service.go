// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"seteuk/internal/domain"
)

// AuthService drives login, logout and profile refresh against the backend
// and records the outcome in the SessionStore.
type AuthService struct {
	api   domain.AuthGateway
	store *SessionStore
	log   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(api domain.AuthGateway, store *SessionStore, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		api:   api,
		store: store,
		log:   log,
	}
}

// Register validates the sign-up form and creates the account. It does not
// log in; the caller is expected to run Login next.
func (s *AuthService) Register(ctx context.Context, r domain.Registration) (domain.User, error) {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if err := r.Validate(); err != nil {
		return domain.User{}, err
	}
	u, err := s.api.Register(ctx, r)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	s.log.Info("account registered", slog.Int64("user_id", u.ID))
	return u, nil
}

// Login exchanges credentials for a token, fetches the matching profile and
// stores both. The session is only touched once both calls succeed.
func (s *AuthService) Login(ctx context.Context, c domain.Credentials) (domain.User, error) {
	c.Email = strings.TrimSpace(c.Email)
	if err := c.Validate(); err != nil {
		return domain.User{}, err
	}

	token, err := s.api.Login(ctx, c)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	user, err := s.api.Me(ctx, token)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	if err := s.store.SetAuth(ctx, token, user); err != nil {
		return domain.User{}, err
	}

	s.log.Info("logged in", slog.Int64("user_id", user.ID))
	return user, nil
}

// Logout clears the session. It reports whether a session was present.
func (s *AuthService) Logout(ctx context.Context) bool {
	was := s.store.IsAuthenticated()
	s.store.Logout(ctx)
	if was {
		s.log.Info("logged out")
	}
	return was
}

// RefreshProfile re-reads the profile from the backend and replaces the
// stored user, keeping the token.
func (s *AuthService) RefreshProfile(ctx context.Context) (domain.User, error) {
	if !s.store.IsAuthenticated() {
		return domain.User{}, ErrNotAuthenticated
	}
	user, err := s.api.Me(ctx, "")
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	if err := s.store.SetUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Whoami returns the stored user without contacting the backend.
func (s *AuthService) Whoami() (domain.User, error) {
	u, ok := s.store.User()
	if !ok {
		return domain.User{}, ErrNotAuthenticated
	}
	return u, nil
}
