// Package identitytest provides in-memory stores for running the SQL
// identity provider in tests without MySQL.
package identitytest

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/repository"
)

const (
	Secret          = "test-session-secret"
	FederatedSecret = "test-federated-secret"
	FederatedURL    = "https://accounts.example.com/o/authorize?client_id=skillswap"
)

// Users is an in-memory identity.UserStore.  Setting Err makes every call
// fail with it; UpdateErr only affects UpdateProfile.
type Users struct {
	mu        sync.Mutex
	rows      map[uint64]repository.User
	next      uint64
	Err       error
	UpdateErr error
}

func NewUsers() *Users { return &Users{rows: map[uint64]repository.User{}, next: 1} }

func (s *Users) Create(ctx context.Context, email, passwordHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	email = repository.NormalizeEmail(email)
	if _, ok := s.byEmail(email); ok {
		return 0, repository.ErrEmailExists
	}
	id := s.next
	s.next++
	now := time.Now().UTC()
	s.rows[id] = repository.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (s *Users) UpsertFederated(ctx context.Context, email, name, photo string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return repository.User{}, s.Err
	}
	email = repository.NormalizeEmail(email)
	u, ok := s.byEmail(email)
	if !ok {
		u = repository.User{ID: s.next, Email: email, CreatedAt: time.Now().UTC()}
		s.next++
	}
	u.Federated = true
	if !u.DisplayName.Valid && name != "" {
		u.DisplayName = sql.NullString{String: name, Valid: true}
	}
	if !u.PhotoURL.Valid && photo != "" {
		u.PhotoURL = sql.NullString{String: photo, Valid: true}
	}
	s.rows[u.ID] = u
	return u, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return repository.User{}, s.Err
	}
	u, ok := s.byEmail(repository.NormalizeEmail(email))
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) GetByID(ctx context.Context, id uint64) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return repository.User{}, s.Err
	}
	u, ok := s.rows[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) UpdateProfile(ctx context.Context, id uint64, name string, photo *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	u, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.DisplayName = sql.NullString{String: name, Valid: true}
	u.PhotoURL = sql.NullString{}
	if photo != nil {
		u.PhotoURL = sql.NullString{String: *photo, Valid: true}
	}
	s.rows[id] = u
	return nil
}

func (s *Users) SetPassword(ctx context.Context, id uint64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.rows[id] = u
	return nil
}

// Disable marks the account with email as disabled.
func (s *Users) Disable(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byEmail(repository.NormalizeEmail(email)); ok {
		u.Disabled = true
		s.rows[u.ID] = u
	}
}

func (s *Users) byEmail(email string) (repository.User, bool) {
	for _, u := range s.rows {
		if u.Email == email {
			return u, true
		}
	}
	return repository.User{}, false
}

type session struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// Sessions is an in-memory identity.SessionStore.
type Sessions struct {
	mu   sync.Mutex
	rows map[string]session
	Err  error
}

func NewSessions() *Sessions { return &Sessions{rows: map[string]session{}} }

func (s *Sessions) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows[tokenHash] = session{userID: userID, exp: exp}
	return nil
}

func (s *Sessions) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	r, ok := s.rows[tokenHash]
	if !ok || r.revoked || time.Now().UTC().After(r.exp) {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (s *Sessions) Revoke(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if r, ok := s.rows[tokenHash]; ok {
		r.revoked = true
		s.rows[tokenHash] = r
	}
	return nil
}

func (s *Sessions) RevokeAllForUser(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for k, r := range s.rows {
		if r.userID == userID {
			r.revoked = true
			s.rows[k] = r
		}
	}
	return nil
}

// Reset is one captured reset mail.
type Reset struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Mailer captures reset mails instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	sent []Reset
	Err  error
}

func (m *Mailer) SendReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Reset{Email: email, Token: token, ExpiresAt: expiresAt})
	return nil
}

// Sent returns the captured mails in send order.
func (m *Mailer) Sent() []Reset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Reset(nil), m.sent...)
}

// Fixture bundles a provider with the stores behind it.
type Fixture struct {
	Provider *identity.SQLProvider
	Users    *Users
	Sessions *Sessions
	Mailer   *Mailer
}

// New returns a provider over fresh in-memory stores with redirect sign-in
// enabled.
func New() *Fixture {
	f := &Fixture{Users: NewUsers(), Sessions: NewSessions(), Mailer: &Mailer{}}
	f.Provider = identity.NewSQLProvider(f.Users, f.Sessions, f.Mailer, identity.SQLConfig{
		Secret:           Secret,
		SessionTTL:       time.Hour,
		BcryptCost:       bcrypt.MinCost,
		FederatedAuthURL: FederatedURL,
		FederatedSecret:  FederatedSecret,
		ResetTTL:         10 * time.Minute,
	})
	return f
}

// MustCreate registers an account and fails the test on error.
func (f *Fixture) MustCreate(t testing.TB, email, password string) *identity.Credential {
	t.Helper()
	cred, err := f.Provider.CreateAccount(context.Background(), email, password)
	if err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	return cred
}
