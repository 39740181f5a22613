package model

// SessionKind tags which source a SessionUser came from.
type SessionKind string

const (
    // SessionFederated is a live session reported by the identity provider.
    // It always carries a UID.
    SessionFederated SessionKind = "federated"
    // SessionLocalOnly is the cached fallback record kept in the device
    // store.  The UID may be empty.
    SessionLocalOnly SessionKind = "local"
)

// SessionUser is the user a request is acting as.  Callers switch on Kind
// rather than probing for optional fields.  PhotoURL is nil when the user
// has no photo; an empty string is never stored.
type SessionUser struct {
    Kind        SessionKind `json:"kind"`
    UID         string      `json:"uid,omitempty"`
    Email       string      `json:"email"`
    DisplayName string      `json:"displayName,omitempty"`
    PhotoURL    *string     `json:"photoURL,omitempty"`
}

// Federated builds the provider-backed variant.
func Federated(uid, email, displayName string, photoURL *string) SessionUser {
    return SessionUser{Kind: SessionFederated, UID: uid, Email: email, DisplayName: displayName, PhotoURL: photoURL}
}

// LocalOnly builds the cached-fallback variant.
func LocalOnly(rec CachedUser) SessionUser {
    return SessionUser{Kind: SessionLocalOnly, UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName, PhotoURL: rec.PhotoURL}
}

// IsFederated reports whether the identity provider is authoritative for u.
func (u SessionUser) IsFederated() bool { return u.Kind == SessionFederated }

// Cached converts u into the record persisted under "skillswap_user".
func (u SessionUser) Cached() CachedUser {
    return CachedUser{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
}

// CachedUser is the fallback profile written to the device store after a
// successful sign-in and on local profile edits.
type CachedUser struct {
    UID         string  `json:"uid,omitempty"`
    Email       string  `json:"email"`
    DisplayName string  `json:"displayName,omitempty"`
    PhotoURL    *string `json:"photoURL,omitempty"`
}
