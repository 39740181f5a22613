// Package identity is the boundary to the identity provider: credential
// and federated sign-in, account creation, profile writes, password reset
// and session observation.
package identity

import (
	"context"
	"sync"
	"time"
)

// User is the provider's view of an account.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    *string
	Federated   bool
}

// Credential is the result of a successful sign-in.  Token is the bearer
// token the client presents on later calls.
type Credential struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// ChangeKind describes a session transition.
type ChangeKind string

const (
	SignedIn       ChangeKind = "signed_in"
	SignedOut      ChangeKind = "signed_out"
	ProfileUpdated ChangeKind = "profile_updated"
)

// SessionChange is delivered to observers.  User is the zero value for a
// sign-out whose account could not be resolved.
type SessionChange struct {
	Kind ChangeKind
	User User
}

// Provider is implemented by identity backends.  Every error it returns for
// an expected failure is an *Error carrying a Code.
type Provider interface {
	SignInWithCredentials(ctx context.Context, email, password string) (*Credential, error)
	SignInWithPopup(ctx context.Context) (*Credential, error)
	// SignInWithRedirect returns the URL the client must visit.  The state
	// value is echoed back in the assertion.
	SignInWithRedirect(ctx context.Context, state string) (string, error)
	ConsumeRedirectResult(ctx context.Context, assertion, state string) (*Credential, error)
	CreateAccount(ctx context.Context, email, password string) (*Credential, error)
	// UpdateCurrentUserProfile replaces display name and photo.  A nil photo
	// removes it.
	UpdateCurrentUserProfile(ctx context.Context, token, displayName string, photoURL *string) (User, error)
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (User, error)
	// ObserveSessionChanges registers fn and returns a function that
	// removes it.
	ObserveSessionChanges(fn func(SessionChange)) (unsubscribe func())
}

// Observers is a set of session-change callbacks safe for concurrent use.
// Providers embed it to implement ObserveSessionChanges.
type Observers struct {
	mu   sync.Mutex
	next int
	subs map[int]func(SessionChange)
}

// ObserveSessionChanges adds fn to the set.
func (o *Observers) ObserveSessionChanges(fn func(SessionChange)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]func(SessionChange))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Notify calls every observer with c.  Callbacks run outside the lock so
// they may subscribe or unsubscribe.
func (o *Observers) Notify(c SessionChange) {
	o.mu.Lock()
	fns := make([]func(SessionChange), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
