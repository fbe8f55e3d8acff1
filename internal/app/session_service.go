package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"seteuk/internal/domain"

	"golang.org/x/oauth2"
)

var (
	// ErrNotAuthenticated indicates an operation that needs a logged-in session.
	ErrNotAuthenticated = domain.ErrNotAuthenticated
	// ErrUserMismatch indicates a SetUser call naming a different account
	// than the one the session was created for.
	ErrUserMismatch = errors.New("user does not match session")
	// ErrIncompleteCredentials indicates SetAuth was called without a token or user id.
	ErrIncompleteCredentials = errors.New("token and user id are required")
)

// Rehydration outcomes reported to the SessionRecorder.
const (
	RehydrateRestored    = "restored"
	RehydrateEmpty       = "empty"
	RehydrateCorrupt     = "corrupt"
	RehydrateExpired     = "expired"
	RehydrateUnavailable = "unavailable"
)

// SessionRecorder receives store events for metrics.
type SessionRecorder interface {
	RecordTransition(op string)
	RecordPersistFailure(op string)
	RecordRehydrate(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string)     {}
func (nopRecorder) RecordPersistFailure(string) {}
func (nopRecorder) RecordRehydrate(string)      {}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) SessionOption {
	return func(s *SessionStore) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec SessionRecorder) SessionOption {
	return func(s *SessionStore) {
		if rec != nil {
			s.rec = rec
		}
	}
}

// WithNamespace overrides the storage key.
func WithNamespace(key string) SessionOption {
	return func(s *SessionStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SessionStore is the single authoritative holder of the client's
// authentication state, mirrored to a durable SnapshotMedium.
//
// Mutations are serialized by mu and run compute, persist, publish in that
// order. Readers load the published value and never block on a writer.
// Observers run after mu is released and under notifyMu, which keeps
// deliveries in commit order. An observer may read the store or cancel a
// subscription but must not call a mutating method.
type SessionStore struct {
	medium domain.SnapshotMedium
	key    string
	log    *slog.Logger
	rec    SessionRecorder
	now    func() time.Time

	mu        sync.Mutex
	notifyMu  sync.Mutex
	current   atomic.Pointer[domain.Session]
	observers map[int]func(domain.Session)
	nextObs   int
}

// NewSessionStore creates a store and rehydrates it from medium before
// returning, so no caller can observe the pre-rehydration state.
func NewSessionStore(ctx context.Context, medium domain.SnapshotMedium, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		medium:    medium,
		key:       domain.DefaultNamespace,
		log:       slog.Default(),
		rec:       nopRecorder{},
		now:       time.Now,
		observers: make(map[int]func(domain.Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&domain.Session{})
	s.rehydrate(ctx)
	return s
}

func (s *SessionStore) rehydrate(ctx context.Context) {
	data, err := s.medium.Load(ctx, s.key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		s.rec.RecordRehydrate(RehydrateEmpty)
		return
	}
	if err != nil && !errors.Is(err, domain.ErrCorruptSnapshot) {
		s.log.Warn("session storage unavailable, starting logged out",
			slog.String("namespace", s.key),
			slog.String("error", err.Error()),
		)
		s.rec.RecordRehydrate(RehydrateUnavailable)
		return
	}

	var sess domain.Session
	if err == nil {
		sess, err = domain.UnmarshalSnapshot(data)
	}
	if err != nil {
		s.log.Warn("discarding corrupt session snapshot",
			slog.String("namespace", s.key),
			slog.String("error", err.Error()),
		)
		s.rec.RecordRehydrate(RehydrateCorrupt)
		s.clearMedium(ctx, "rehydrate")
		return
	}

	if !sess.IsAuthenticated {
		s.rec.RecordRehydrate(RehydrateEmpty)
		return
	}
	if exp, ok := TokenExpiry(sess.Token); ok && !s.now().Before(exp) {
		s.log.Info("stored token expired, starting logged out",
			slog.Time("expired_at", exp),
		)
		s.rec.RecordRehydrate(RehydrateExpired)
		s.clearMedium(ctx, "rehydrate")
		return
	}

	s.current.Store(&sess)
	s.rec.RecordRehydrate(RehydrateRestored)
	s.log.Debug("session restored", slog.Int64("user_id", sess.User.ID))
}

// Token returns the current token, or "" when logged out.
func (s *SessionStore) Token() string {
	return s.current.Load().Token
}

// User returns a copy of the current user.
func (s *SessionStore) User() (domain.User, bool) {
	u := s.current.Load().User
	if u == nil {
		return domain.User{}, false
	}
	return *u, true
}

// IsAuthenticated reports whether a token and user are present.
func (s *SessionStore) IsAuthenticated() bool {
	return s.current.Load().IsAuthenticated
}

// Session returns a consistent copy of the whole state.
func (s *SessionStore) Session() domain.Session {
	return s.current.Load().Clone()
}

// SetAuth records a successful login.
func (s *SessionStore) SetAuth(ctx context.Context, token string, user domain.User) error {
	if token == "" || user.ID == 0 {
		return ErrIncompleteCredentials
	}
	s.mu.Lock()
	next := domain.Session{Token: token, User: &user, IsAuthenticated: true}
	s.commit(ctx, "set_auth", next)
	return nil
}

// Logout resets the session to empty and clears the durable snapshot.
// Calling it while logged out leaves the observable state unchanged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.commit(ctx, "logout", domain.Session{})
}

// SetUser replaces the profile of the logged-in user. Token and
// IsAuthenticated are left untouched. It refuses to run while logged out,
// and the user's id and email must match the session's.
func (s *SessionStore) SetUser(ctx context.Context, user domain.User) error {
	if user.ID == 0 {
		return ErrIncompleteCredentials
	}
	s.mu.Lock()
	cur := s.current.Load()
	if !cur.IsAuthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if user.ID != cur.User.ID || user.Email != cur.User.Email {
		s.mu.Unlock()
		return fmt.Errorf("%w: session user %d, got %d", ErrUserMismatch, cur.User.ID, user.ID)
	}
	next := domain.Session{Token: cur.Token, User: &user, IsAuthenticated: true}
	s.commit(ctx, "set_user", next)
	return nil
}

// commit persists and publishes next, releases mu, then notifies observers
// in registration order. Callers hold mu.
func (s *SessionStore) commit(ctx context.Context, op string, next domain.Session) {
	if next.Empty() {
		s.clearMedium(ctx, op)
	} else if err := s.medium.Save(ctx, s.key, domain.MarshalSnapshot(next)); err != nil {
		s.persistFailed(op, err)
	}

	s.current.Store(&next)
	s.rec.RecordTransition(op)

	observers := s.snapshotObservers()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range observers {
		fn(next.Clone())
	}
}

func (s *SessionStore) clearMedium(ctx context.Context, op string) {
	if err := s.medium.Clear(ctx, s.key); err != nil {
		s.persistFailed(op, err)
	}
}

func (s *SessionStore) persistFailed(op string, err error) {
	s.rec.RecordPersistFailure(op)
	s.log.Warn("session snapshot not persisted; state kept in memory only",
		slog.String("op", op),
		slog.String("namespace", s.key),
		slog.String("error", err.Error()),
	)
}

// Subscribe registers fn to be called with the new state after every
// mutation. The returned func removes the subscription.
func (s *SessionStore) Subscribe(fn func(domain.Session)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
		})
	}
}

// snapshotObservers returns the subscribers in registration order. Callers hold mu.
func (s *SessionStore) snapshotObservers() []func(domain.Session) {
	ids := slices.Sorted(maps.Keys(s.observers))
	fns := make([]func(domain.Session), len(ids))
	for i, id := range ids {
		fns[i] = s.observers[id]
	}
	return fns
}

// TokenSource exposes the current token to HTTP transports.
func (s *SessionStore) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{store: s}
}

type sessionTokenSource struct {
	store *SessionStore
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	token := ts.store.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(token); ok {
		tok.Expiry = exp
	}
	return tok, nil
}
