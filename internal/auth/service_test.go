package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryUserStore struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (m *memoryUserStore) Create(_ context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrAlreadyExists
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (m *memoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func TestSignupLoginAuthenticate(t *testing.T) {
	store := newMemoryUserStore()
	svc, err := NewService(store, "test-secret", WithIssuer("test"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	user, err := svc.Signup(context.Background(), "Ana@Example.com", "Ana", "s3cret", "ES")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.PreferredLanguage != "es" {
		t.Fatalf("preferred language not normalized: %q", user.PreferredLanguage)
	}

	loggedIn, token, expiresAt, err := svc.Login(context.Background(), "ana@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("unexpected user: %s", loggedIn.ID)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	principal, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.UserID != user.ID || principal.PreferredLanguage != "es" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemoryUserStore()
	svc, _ := NewService(store, "test-secret")

	if _, err := svc.Signup(context.Background(), "ana@example.com", "Ana", "s3cret", "en"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, _, _, err := svc.Login(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	store := newMemoryUserStore()
	svc, _ := NewService(store, "test-secret", WithAccessTTL(time.Minute))

	user, err := svc.Signup(context.Background(), "ana@example.com", "Ana", "s3cret", "en")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	token, _, err := svc.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	store := newMemoryUserStore()
	svc, _ := NewService(store, "test-secret")
	other, _ := NewService(store, "other-secret")

	user, err := svc.Signup(context.Background(), "ana@example.com", "Ana", "s3cret", "en")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	forged, _, err := other.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged signature, got %v", err)
	}
}
