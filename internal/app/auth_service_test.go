package app

import (
	"context"
	"errors"
	"testing"

	"seteuk/internal/adapter/memory"
	"seteuk/internal/domain"
	"seteuk/internal/logger"
)

type mockAuthGateway struct {
	registerFn func(ctx context.Context, r domain.Registration) (domain.User, error)
	loginFn    func(ctx context.Context, c domain.Credentials) (string, error)
	meFn       func(ctx context.Context, token string) (domain.User, error)
}

func (m *mockAuthGateway) Register(ctx context.Context, r domain.Registration) (domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, r)
	}
	return domain.User{ID: 1, Email: r.Email, Name: r.Name}, nil
}

func (m *mockAuthGateway) Login(ctx context.Context, c domain.Credentials) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, c)
	}
	return "tok123", nil
}

func (m *mockAuthGateway) Me(ctx context.Context, token string) (domain.User, error) {
	if m.meFn != nil {
		return m.meFn(ctx, token)
	}
	return kim, nil
}

func newAuthService(t *testing.T, gw *mockAuthGateway) (*AuthService, *SessionStore) {
	t.Helper()
	store := newTestStore(t, memory.New())
	return NewAuthService(gw, store, logger.Discard()), store
}

func TestAuthService_LoginStoresTokenAndProfile(t *testing.T) {
	var meToken string
	svc, store := newAuthService(t, &mockAuthGateway{
		meFn: func(ctx context.Context, token string) (domain.User, error) {
			meToken = token
			return kim, nil
		},
	})

	u, err := svc.Login(context.Background(), domain.Credentials{Email: " a@b.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u != kim {
		t.Errorf("expected %+v, got %+v", kim, u)
	}
	if meToken != "tok123" {
		t.Errorf("profile must be fetched with the new token, got %q", meToken)
	}
	if store.Token() != "tok123" || !store.IsAuthenticated() {
		t.Errorf("session not stored: %+v", store.Session())
	}
}

func TestAuthService_LoginFailureLeavesSessionUntouched(t *testing.T) {
	tests := []struct {
		name string
		gw   *mockAuthGateway
		cred domain.Credentials
	}{
		{
			name: "invalid form",
			gw:   &mockAuthGateway{},
			cred: domain.Credentials{Email: "not-an-email", Password: "x"},
		},
		{
			name: "backend rejects",
			gw: &mockAuthGateway{loginFn: func(ctx context.Context, c domain.Credentials) (string, error) {
				return "", domain.ErrInvalidCredentials
			}},
			cred: domain.Credentials{Email: "a@b.com", Password: "wrong1"},
		},
		{
			name: "profile fetch fails",
			gw: &mockAuthGateway{meFn: func(ctx context.Context, token string) (domain.User, error) {
				return domain.User{}, errors.New("boom")
			}},
			cred: domain.Credentials{Email: "a@b.com", Password: "secret1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newAuthService(t, tt.gw)
			if _, err := svc.Login(context.Background(), tt.cred); err == nil {
				t.Fatal("expected error")
			}
			assertLoggedOut(t, store)
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	var sent domain.Registration
	svc, store := newAuthService(t, &mockAuthGateway{
		registerFn: func(ctx context.Context, r domain.Registration) (domain.User, error) {
			sent = r
			return domain.User{ID: 9, Email: r.Email, Name: r.Name}, nil
		},
	})

	u, err := svc.Register(context.Background(), domain.Registration{
		Email: "new@b.com ", Password: "secret1", ConfirmPassword: "secret1", Name: " 홍길동",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID != 9 || sent.Email != "new@b.com" || sent.Name != "홍길동" {
		t.Errorf("unexpected user %+v / sent %+v", u, sent)
	}
	if store.IsAuthenticated() {
		t.Error("register must not log in")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	called := false
	svc, _ := newAuthService(t, &mockAuthGateway{
		registerFn: func(ctx context.Context, r domain.Registration) (domain.User, error) {
			called = true
			return domain.User{}, nil
		},
	})

	_, err := svc.Register(context.Background(), domain.Registration{
		Email: "a@b.com", Password: "12345", ConfirmPassword: "12345", Name: "Kim",
	})
	if !errors.Is(err, domain.ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration, got %v", err)
	}
	if called {
		t.Error("backend must not be called for an invalid form")
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, store := newAuthService(t, &mockAuthGateway{})
	ctx := context.Background()
	_ = store.SetAuth(ctx, "tok123", kim)

	if !svc.Logout(ctx) {
		t.Error("expected first logout to report a session")
	}
	if svc.Logout(ctx) {
		t.Error("expected second logout to report no session")
	}
	assertLoggedOut(t, store)
}

func TestAuthService_RefreshProfile(t *testing.T) {
	updated := kim
	updated.Name = "Kim Minji"
	var meToken = "unset"
	svc, store := newAuthService(t, &mockAuthGateway{
		meFn: func(ctx context.Context, token string) (domain.User, error) {
			meToken = token
			return updated, nil
		},
	})
	ctx := context.Background()

	if _, err := svc.RefreshProfile(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated while logged out, got %v", err)
	}

	_ = store.SetAuth(ctx, "tok123", kim)
	u, err := svc.RefreshProfile(ctx)
	if err != nil {
		t.Fatalf("RefreshProfile: %v", err)
	}
	if meToken != "" {
		t.Errorf("refresh should use the session token source, got explicit %q", meToken)
	}
	if u.Name != "Kim Minji" || store.Token() != "tok123" {
		t.Errorf("unexpected state %+v", store.Session())
	}
}

func TestAuthService_Whoami(t *testing.T) {
	svc, store := newAuthService(t, &mockAuthGateway{})

	if _, err := svc.Whoami(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	_ = store.SetAuth(context.Background(), "tok123", kim)
	if u, err := svc.Whoami(); err != nil || u != kim {
		t.Errorf("Whoami = %+v, %v", u, err)
	}
}
