// Package session decides which user a device is acting as.  The identity
// provider's live session is authoritative; the record cached in the device
// store is the fallback when the provider has none.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/validate"
)

// ErrUpdateFailed wraps a profile write the provider or store rejected.
// The stored session is unchanged when it is returned.
var ErrUpdateFailed = errors.New("profile update failed")

// ValidationError is a profile edit rejected before any write.
type ValidationError = validate.Error

// DefaultAvatarBase is prefixed to the url-escaped display name or email
// when a user has no photo.
const DefaultAvatarBase = "https://ui-avatars.com/api/?name="

// Store is the subset of the device store the reconciler needs.
type Store interface {
	Get(ctx context.Context, device, key string, dst any) error
	Set(ctx context.Context, device, key string, v any) error
	Delete(ctx context.Context, device, key string) error
}

// ProfileUpdate is a requested profile edit.  A nil PhotoURL keeps the
// current photo; a blank one removes it.
type ProfileUpdate struct {
	DisplayName string
	PhotoURL    *string
}

// Reconciler merges provider and device-store state.  It is safe for
// concurrent use; all state lives in the provider and the store.
type Reconciler struct {
	provider identity.Provider
	store    Store
	log      *slog.Logger
}

// NewReconciler returns a Reconciler.  A nil logger uses slog.Default().
func NewReconciler(provider identity.Provider, store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{provider: provider, store: store, log: logger}
}

// Resolve returns the device's current user.  ok is false when neither the
// provider nor the cache knows one; that is a normal signed-out state and
// err is nil.  A provider failure falls through to the cache.
func (r *Reconciler) Resolve(ctx context.Context, device, token string) (model.SessionUser, bool, error) {
	if token != "" {
		u, err := r.provider.CurrentUser(ctx, token)
		if err == nil {
			return fromIdentity(u), true, nil
		}
		if identity.CodeOf(err) != identity.CodeInvalidSession {
			r.log.Warn("identity provider unavailable, using cached session",
				slog.String("device", device), slog.Any("error", err))
		}
	}

	var rec model.CachedUser
	err := r.store.Get(ctx, device, devicestore.KeyUser, &rec)
	if errors.Is(err, devicestore.ErrNotFound) {
		return model.SessionUser{}, false, nil
	}
	if err != nil {
		return model.SessionUser{}, false, fmt.Errorf("resolve session: %w", err)
	}
	if strings.TrimSpace(rec.Email) == "" {
		return model.SessionUser{}, false, nil
	}
	return model.LocalOnly(rec), true, nil
}

// ApplyProfileEdit validates and applies upd to current.  Federated users
// are written through the provider first and then mirrored into the cache;
// local-only users are written to the cache alone.
func (r *Reconciler) ApplyProfileEdit(ctx context.Context, device, token string, current model.SessionUser, upd ProfileUpdate) (model.SessionUser, error) {
	name := strings.TrimSpace(upd.DisplayName)
	if name == "" {
		return current, validate.New("displayName", "Please enter a display name")
	}
	photo := current.PhotoURL
	if upd.PhotoURL != nil {
		photo = nil
		if p := strings.TrimSpace(*upd.PhotoURL); p != "" {
			photo = &p
		}
	}

	if current.IsFederated() {
		u, err := r.provider.UpdateCurrentUserProfile(ctx, token, name, photo)
		if err != nil {
			return current, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
		}
		next := fromIdentity(u)
		if err := r.store.Set(ctx, device, devicestore.KeyUser, next.Cached()); err != nil {
			r.log.Warn("profile saved but cache mirror failed",
				slog.String("device", device), slog.Any("error", err))
		}
		return next, nil
	}

	next := current
	next.DisplayName = name
	next.PhotoURL = photo
	if err := r.store.Set(ctx, device, devicestore.KeyUser, next.Cached()); err != nil {
		return current, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	return next, nil
}

// Remember writes the cached fallback after a successful sign-in.
func (r *Reconciler) Remember(ctx context.Context, device string, u model.SessionUser) error {
	if err := r.store.Set(ctx, device, devicestore.KeyUser, u.Cached()); err != nil {
		return fmt.Errorf("remember session: %w", err)
	}
	return nil
}

// Forget clears the cached fallback.
func (r *Reconciler) Forget(ctx context.Context, device string) error {
	if err := r.store.Delete(ctx, device, devicestore.KeyUser); err != nil {
		return fmt.Errorf("forget session: %w", err)
	}
	return nil
}

// AvatarURL returns the user's photo, or a generated avatar keyed by
// display name (email when the name is empty).
func AvatarURL(u model.SessionUser) string {
	if u.PhotoURL != nil && *u.PhotoURL != "" {
		return *u.PhotoURL
	}
	label := u.DisplayName
	if label == "" {
		label = u.Email
	}
	return DefaultAvatarBase + url.QueryEscape(label)
}

// FromCredential converts a provider credential into a federated session.
func FromCredential(c *identity.Credential) model.SessionUser {
	return fromIdentity(c.User)
}

func fromIdentity(u identity.User) model.SessionUser {
	return model.Federated(u.UID, u.Email, u.DisplayName, u.PhotoURL)
}
