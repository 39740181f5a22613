package identity

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/skillswap/internal/repository"
	"github.com/iliyamo/skillswap/internal/utils"
)

// MinPasswordLength is the provider's own password floor.  Stricter local
// policy runs before the provider is called.
const MinPasswordLength = 6

// UserStore is the account table used by SQLProvider.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	UpsertFederated(ctx context.Context, email, name, photo string) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	UpdateProfile(ctx context.Context, id uint64, name string, photo *string) error
	SetPassword(ctx context.Context, id uint64, passwordHash string) error
}

// SessionStore tracks issued session tokens by hash.
type SessionStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// SQLConfig configures SQLProvider.
type SQLConfig struct {
	Secret           string
	SessionTTL       time.Duration
	BcryptCost       int
	FederatedAuthURL string // empty disables redirect sign-in
	FederatedSecret  string
	ResetTTL         time.Duration
}

// SQLProvider is a Provider backed by the MySQL users and refresh_tokens
// tables.  Sessions are HS256 JWTs whose id must match a live row.
type SQLProvider struct {
	Observers

	users    UserStore
	sessions SessionStore
	mailer   ResetMailer
	cfg      SQLConfig
}

var _ Provider = (*SQLProvider)(nil)

// NewSQLProvider wires a provider.  mailer may be nil, in which case
// password reset reports operation-not-allowed.
func NewSQLProvider(users UserStore, sessions SessionStore, mailer ResetMailer, cfg SQLConfig) *SQLProvider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 30 * time.Minute
	}
	return &SQLProvider{users: users, sessions: sessions, mailer: mailer, cfg: cfg}
}

func (p *SQLProvider) SignInWithCredentials(ctx context.Context, email, password string) (*Credential, error) {
	const op = "signInWithCredentials"
	if !validEmail(email) {
		return nil, NewError(op, CodeInvalidEmail, nil)
	}
	u, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(op, err)
	}
	if u.Disabled {
		return nil, NewError(op, CodeUserDisabled, nil)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, NewError(op, CodeWrongPassword, nil)
	}
	return p.issue(ctx, op, u)
}

// SignInWithPopup always fails: a server has no window to open.
func (p *SQLProvider) SignInWithPopup(ctx context.Context) (*Credential, error) {
	return nil, NewError("signInWithPopup", CodeOperationNotSupported, nil)
}

func (p *SQLProvider) SignInWithRedirect(ctx context.Context, state string) (string, error) {
	const op = "signInWithRedirect"
	if p.cfg.FederatedAuthURL == "" {
		return "", NewError(op, CodeOperationNotAllowed, nil)
	}
	u, err := url.Parse(p.cfg.FederatedAuthURL)
	if err != nil {
		return "", NewError(op, CodeOperationNotAllowed, err)
	}
	q := u.Query()
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *SQLProvider) ConsumeRedirectResult(ctx context.Context, assertion, state string) (*Credential, error) {
	const op = "getRedirectResult"
	if p.cfg.FederatedSecret == "" {
		return nil, NewError(op, CodeOperationNotAllowed, nil)
	}
	claims, err := utils.ParseFederatedAssertion(p.cfg.FederatedSecret, assertion)
	if err != nil {
		return nil, NewError(op, CodeInvalidCredential, err)
	}
	if claims.State != "" && claims.State != state {
		return nil, NewError(op, CodeInvalidCredential, errors.New("state mismatch"))
	}
	if !validEmail(claims.Email) {
		return nil, NewError(op, CodeInvalidEmail, nil)
	}
	u, err := p.users.UpsertFederated(ctx, claims.Email, claims.Name, claims.Picture)
	if err != nil {
		return nil, NewError(op, CodeNetworkRequestFailed, err)
	}
	if u.Disabled {
		return nil, NewError(op, CodeUserDisabled, nil)
	}
	return p.issue(ctx, op, u)
}

func (p *SQLProvider) CreateAccount(ctx context.Context, email, password string) (*Credential, error) {
	const op = "createUserWithEmailAndPassword"
	if !validEmail(email) {
		return nil, NewError(op, CodeInvalidEmail, nil)
	}
	if len(password) < MinPasswordLength {
		return nil, NewError(op, CodeWeakPassword, nil)
	}
	hash, err := utils.HashPassword(password, p.cfg.BcryptCost)
	if err != nil {
		return nil, NewError(op, CodeNetworkRequestFailed, err)
	}
	id, err := p.users.Create(ctx, email, hash)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil, NewError(op, CodeEmailAlreadyInUse, nil)
	}
	if err != nil {
		return nil, NewError(op, CodeNetworkRequestFailed, err)
	}
	u, err := p.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(op, err)
	}
	return p.issue(ctx, op, u)
}

func (p *SQLProvider) UpdateCurrentUserProfile(ctx context.Context, token, displayName string, photoURL *string) (User, error) {
	const op = "updateProfile"
	u, err := p.resolve(ctx, op, token)
	if err != nil {
		return User{}, err
	}
	if err := p.users.UpdateProfile(ctx, u.ID, displayName, photoURL); err != nil {
		return User{}, lookupError(op, err)
	}
	u.DisplayName.String, u.DisplayName.Valid = displayName, true
	u.PhotoURL.Valid = photoURL != nil
	if photoURL != nil {
		u.PhotoURL.String = *photoURL
	}
	out := toUser(u)
	p.Notify(SessionChange{Kind: ProfileUpdated, User: out})
	return out, nil
}

func (p *SQLProvider) SendPasswordReset(ctx context.Context, email string) error {
	const op = "sendPasswordResetEmail"
	if !validEmail(email) {
		return NewError(op, CodeInvalidEmail, nil)
	}
	if p.mailer == nil {
		return NewError(op, CodeOperationNotAllowed, nil)
	}
	u, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return lookupError(op, err)
	}
	if u.Disabled {
		return NewError(op, CodeUserDisabled, nil)
	}
	tok, exp, err := utils.NewResetToken(p.cfg.Secret, u.ID, u.PasswordHash, p.cfg.ResetTTL)
	if err != nil {
		return NewError(op, CodeNetworkRequestFailed, err)
	}
	if err := p.mailer.SendReset(ctx, u.Email, tok, exp); err != nil {
		return NewError(op, CodeNetworkRequestFailed, err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password and revokes every session of the
// account.  A token is spent once the password changes.
func (p *SQLProvider) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	const op = "confirmPasswordReset"
	uid, ver, err := utils.ParseResetToken(p.cfg.Secret, resetToken)
	if err != nil {
		return NewError(op, CodeInvalidActionCode, err)
	}
	if len(newPassword) < MinPasswordLength {
		return NewError(op, CodeWeakPassword, nil)
	}
	u, err := p.users.GetByID(ctx, uid)
	if err != nil {
		return lookupError(op, err)
	}
	if u.Disabled {
		return NewError(op, CodeUserDisabled, nil)
	}
	if utils.PasswordVersion(u.PasswordHash) != ver {
		return NewError(op, CodeInvalidActionCode, nil)
	}
	hash, err := utils.HashPassword(newPassword, p.cfg.BcryptCost)
	if err != nil {
		return NewError(op, CodeNetworkRequestFailed, err)
	}
	if err := p.users.SetPassword(ctx, u.ID, hash); err != nil {
		return lookupError(op, err)
	}
	if err := p.sessions.RevokeAllForUser(ctx, u.ID); err != nil {
		return NewError(op, CodeNetworkRequestFailed, err)
	}
	return nil
}

// SignOut revokes the session behind token.  Unknown or expired tokens are
// already signed out and succeed.
func (p *SQLProvider) SignOut(ctx context.Context, token string) error {
	uid, jti, err := utils.ParseSessionToken(p.cfg.Secret, token)
	if err != nil {
		return nil
	}
	if err := p.sessions.Revoke(ctx, utils.HashToken(jti)); err != nil {
		return NewError("signOut", CodeNetworkRequestFailed, err)
	}
	change := SessionChange{Kind: SignedOut}
	if u, err := p.users.GetByID(ctx, uid); err == nil {
		change.User = toUser(u)
	}
	p.Notify(change)
	return nil
}

func (p *SQLProvider) CurrentUser(ctx context.Context, token string) (User, error) {
	u, err := p.resolve(ctx, "currentUser", token)
	if err != nil {
		return User{}, err
	}
	return toUser(u), nil
}

func (p *SQLProvider) resolve(ctx context.Context, op, token string) (repository.User, error) {
	if strings.TrimSpace(token) == "" {
		return repository.User{}, NewError(op, CodeInvalidSession, nil)
	}
	uid, jti, err := utils.ParseSessionToken(p.cfg.Secret, token)
	if err != nil {
		return repository.User{}, NewError(op, CodeInvalidSession, err)
	}
	owner, err := p.sessions.Validate(ctx, utils.HashToken(jti))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && owner != uid) {
		return repository.User{}, NewError(op, CodeInvalidSession, nil)
	}
	if err != nil {
		return repository.User{}, NewError(op, CodeNetworkRequestFailed, err)
	}
	u, err := p.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, NewError(op, CodeInvalidSession, nil)
	}
	if err != nil {
		return repository.User{}, NewError(op, CodeNetworkRequestFailed, err)
	}
	if u.Disabled {
		return repository.User{}, NewError(op, CodeUserDisabled, nil)
	}
	return u, nil
}

func (p *SQLProvider) issue(ctx context.Context, op string, u repository.User) (*Credential, error) {
	tok, err := utils.NewSessionToken(p.cfg.Secret, u.ID, p.cfg.SessionTTL)
	if err != nil {
		return nil, NewError(op, CodeNetworkRequestFailed, err)
	}
	if err := p.sessions.Store(ctx, u.ID, utils.HashToken(tok.ID), tok.Exp); err != nil {
		return nil, NewError(op, CodeNetworkRequestFailed, err)
	}
	cred := &Credential{User: toUser(u), Token: tok.Token, ExpiresAt: tok.Exp}
	p.Notify(SessionChange{Kind: SignedIn, User: cred.User})
	return cred, nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(op, CodeUserNotFound, nil)
	}
	return NewError(op, CodeNetworkRequestFailed, err)
}

func toUser(u repository.User) User {
	out := User{
		UID:         strconv.FormatUint(u.ID, 10),
		Email:       u.Email,
		DisplayName: u.DisplayName.String,
		Federated:   u.Federated,
	}
	if u.PhotoURL.Valid && u.PhotoURL.String != "" {
		photo := u.PhotoURL.String
		out.PhotoURL = &photo
	}
	return out
}

// validEmail accepts a bare address only; display-name forms are rejected.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}
