// Package authflow drives sign-in, sign-up, federated sign-in, password
// reset and sign-out for a device.  After every successful sign-in it
// resumes whatever the device was doing before it was sent to log in.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/session"
	"github.com/iliyamo/skillswap/internal/utils"
	"github.com/iliyamo/skillswap/internal/validate"
)

// DefaultNext is where a device goes after sign-in when nothing was saved.
const DefaultNext = "/"

// Store is the device store as used by the auth flow.
type Store interface {
	Get(ctx context.Context, device, key string, dst any) error
	Set(ctx context.Context, device, key string, v any) error
	Delete(ctx context.Context, device, key string) error
	Take(ctx context.Context, device, key string, dst any) error
}

// Sessions keeps the cached fallback in step with sign-in and sign-out.
type Sessions interface {
	Remember(ctx context.Context, device string, u model.SessionUser) error
	Forget(ctx context.Context, device string) error
}

// Result describes a completed auth step.  For a federated sign-in that
// fell back to the redirect flow only RedirectURL is set.
type Result struct {
	User           *model.SessionUser
	Token          string
	ExpiresAt      time.Time
	Next           string
	PendingBooking *model.BookingDraft
	RedirectURL    string
	Message        string
}

// SignUpInput is the sign-up form.  Name and Photo are optional.
type SignUpInput struct {
	Name     string
	Email    string
	Photo    string
	Password string
}

type Service struct {
	provider identity.Provider
	store    Store
	sessions Sessions
	log      *slog.Logger
}

// NewService wires the flow.  sessions is normally a *session.Reconciler.
func NewService(provider identity.Provider, store Store, sessions Sessions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, store: store, sessions: sessions, log: logger}
}

// SignIn signs in with email and password.
func (s *Service) SignIn(ctx context.Context, device, email, password string) (Result, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Result{}, validate.New("credentials", "Please provide both email and password")
	}
	cred, err := s.provider.SignInWithCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, device, cred, MsgSignedIn)
}

// SignUp creates an account after checking the local password policy, then
// applies the optional name and photo.
func (s *Service) SignUp(ctx context.Context, device string, in SignUpInput) (Result, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return Result{}, validate.New("credentials", "Please fill in all required fields")
	}
	if err := validate.Password(in.Password); err != nil {
		return Result{}, err
	}
	cred, err := s.provider.CreateAccount(ctx, email, in.Password)
	if err != nil {
		return Result{}, err
	}

	name, photo := strings.TrimSpace(in.Name), strings.TrimSpace(in.Photo)
	if name != "" || photo != "" {
		var p *string
		if photo != "" {
			p = &photo
		}
		u, err := s.provider.UpdateCurrentUserProfile(ctx, cred.Token, name, p)
		if err != nil {
			s.log.Warn("account created but profile update failed",
				slog.String("device", device), slog.Any("error", err))
		} else {
			cred.User = u
		}
	}
	return s.complete(ctx, device, cred, MsgSignedUp)
}

// SignInFederated tries the popup flow.  When the environment cannot run a
// popup it starts the redirect flow instead and returns its URL; the state
// value is kept on the device until the callback arrives.
func (s *Service) SignInFederated(ctx context.Context, device string, op Op) (Result, error) {
	cred, err := s.provider.SignInWithPopup(ctx)
	if err == nil {
		return s.complete(ctx, device, cred, federatedMessage(op))
	}
	if !identity.IsEnvironmentFailure(err) {
		return Result{}, err
	}

	state, err := utils.RandomState(16)
	if err != nil {
		return Result{}, fmt.Errorf("redirect state: %w", err)
	}
	if err := s.store.Set(ctx, device, devicestore.KeyFederatedState, state); err != nil {
		return Result{}, fmt.Errorf("save redirect state: %w", err)
	}
	url, err := s.provider.SignInWithRedirect(ctx, state)
	if err != nil {
		return Result{}, err
	}
	return Result{RedirectURL: url}, nil
}

// CompleteFederatedRedirect finishes the redirect flow.  The state must
// match the one saved by SignInFederated and is consumed either way.
func (s *Service) CompleteFederatedRedirect(ctx context.Context, device, state, assertion string, op Op) (Result, error) {
	var saved string
	err := s.store.Take(ctx, device, devicestore.KeyFederatedState, &saved)
	if errors.Is(err, devicestore.ErrNotFound) || (err == nil && saved != state) {
		return Result{}, identity.NewError("getRedirectResult", identity.CodeInvalidCredential, errors.New("unexpected state"))
	}
	if err != nil {
		return Result{}, fmt.Errorf("load redirect state: %w", err)
	}
	cred, err := s.provider.ConsumeRedirectResult(ctx, assertion, state)
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, device, cred, federatedMessage(op))
}

// RememberResetEmail saves email so the reset page can prefill it.
func (s *Service) RememberResetEmail(ctx context.Context, device, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return s.store.Delete(ctx, device, devicestore.KeyResetEmail)
	}
	return s.store.Set(ctx, device, devicestore.KeyResetEmail, email)
}

// PrefillEmail returns the saved reset email, or "" when there is none.
func (s *Service) PrefillEmail(ctx context.Context, device string) (string, error) {
	var email string
	err := s.store.Get(ctx, device, devicestore.KeyResetEmail, &email)
	if errors.Is(err, devicestore.ErrNotFound) {
		return "", nil
	}
	return email, err
}

// SendPasswordReset asks the provider to mail a reset link.  On success
// the saved reset email is cleared and the device is sent back to login.
func (s *Service) SendPasswordReset(ctx context.Context, device, email string) (Result, error) {
	email = strings.TrimSpace(email)
	if err := validate.Required("email", email, "Please enter your email address"); err != nil {
		return Result{}, err
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return Result{}, err
	}
	if err := s.store.Delete(ctx, device, devicestore.KeyResetEmail); err != nil {
		s.log.Warn("clear reset email failed", slog.String("device", device), slog.Any("error", err))
	}
	return Result{Next: "/login", Message: MsgResetSent}, nil
}

// ConfirmPasswordReset sets a new password from a reset token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (Result, error) {
	if err := validate.Required("token", token, "This reset link is invalid or has expired"); err != nil {
		return Result{}, err
	}
	if err := validate.Password(newPassword); err != nil {
		return Result{}, err
	}
	if err := s.provider.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		return Result{}, err
	}
	return Result{Next: "/login", Message: MsgPasswordChanged}, nil
}

// SignOut ends the provider session and clears the cached fallback.  The
// cache is cleared even when the provider call fails.
func (s *Service) SignOut(ctx context.Context, device, token string) (Result, error) {
	var perr error
	if token != "" {
		perr = s.provider.SignOut(ctx, token)
	}
	if err := s.sessions.Forget(ctx, device); err != nil {
		return Result{}, err
	}
	if perr != nil {
		return Result{}, perr
	}
	return Result{Next: DefaultNext, Message: MsgSignedOut}, nil
}

// complete remembers the session and picks up the saved redirect and
// pending booking, consuming both.
func (s *Service) complete(ctx context.Context, device string, cred *identity.Credential, msg string) (Result, error) {
	user := session.FromCredential(cred)
	if err := s.sessions.Remember(ctx, device, user); err != nil {
		return Result{}, err
	}
	res := Result{User: &user, Token: cred.Token, ExpiresAt: cred.ExpiresAt, Next: DefaultNext, Message: msg}

	var next string
	switch err := s.store.Take(ctx, device, devicestore.KeyPostLoginRedirect, &next); {
	case err == nil && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//"):
		res.Next = next
	case err != nil && !errors.Is(err, devicestore.ErrNotFound):
		s.log.Warn("load login redirect failed", slog.String("device", device), slog.Any("error", err))
	}

	var draft model.BookingDraft
	switch err := s.store.Take(ctx, device, devicestore.KeyPendingBooking, &draft); {
	case err == nil:
		res.PendingBooking = &draft
	case !errors.Is(err, devicestore.ErrNotFound):
		s.log.Warn("load pending booking failed", slog.String("device", device), slog.Any("error", err))
	}
	return res, nil
}

func federatedMessage(op Op) string {
	if op == OpFederatedSignUp {
		return MsgFederatedSignedUp
	}
	return MsgFederatedSignedIn
}
