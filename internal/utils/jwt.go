package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for stored token ids
    "encoding/hex"  // hex encoding of digests and random state
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// Audiences keep one kind of token from being accepted as another.
const (
    AudienceSession = "skillswap-session"
    AudienceReset   = "skillswap-password-reset"
)

// ErrInvalidToken covers every token that fails parsing or verification.
var ErrInvalidToken = errors.New("invalid token")

// SessionToken is a signed session JWT.  ID is the jti claim; only its hash
// is persisted.
type SessionToken struct {
    Token string
    ID    string
    Exp   time.Time
}

// NewSessionToken signs an HS256 session token for userID.  The claims are
// sub (user id), jti, aud, iat and exp.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    jti := uuid.NewString()
    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(userID, 10),
        ID:        jti,
        Audience:  jwt.ClaimStrings{AudienceSession},
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseSessionToken verifies signature, audience and expiry and returns the
// user id and jti.
func ParseSessionToken(secret, token string) (uint64, string, error) {
    var claims jwt.RegisteredClaims
    if err := parse(secret, token, AudienceSession, &claims); err != nil {
        return 0, "", err
    }
    uid, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || claims.ID == "" {
        return 0, "", ErrInvalidToken
    }
    return uid, claims.ID, nil
}

// FederatedClaims is the assertion the federated provider posts back after a
// redirect sign-in.
type FederatedClaims struct {
    Email   string `json:"email"`
    Name    string `json:"name,omitempty"`
    Picture string `json:"picture,omitempty"`
    State   string `json:"state,omitempty"`
    jwt.RegisteredClaims
}

// ParseFederatedAssertion verifies an HS256 assertion signed with the
// federated secret.
func ParseFederatedAssertion(secret, assertion string) (FederatedClaims, error) {
    var claims FederatedClaims
    if err := parse(secret, assertion, "", &claims); err != nil {
        return FederatedClaims{}, err
    }
    if claims.Email == "" {
        return FederatedClaims{}, ErrInvalidToken
    }
    return claims, nil
}

// NewFederatedAssertion signs an assertion the way the federated provider
// does.  The server never calls it; tests and local tooling do.
func NewFederatedAssertion(secret string, c FederatedClaims, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    c.IssuedAt = jwt.NewNumericDate(now)
    c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
    return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ResetClaims carries a fingerprint of the password hash that was current
// when the token was issued.  Changing the password invalidates the token.
type ResetClaims struct {
    Version string `json:"ver"`
    jwt.RegisteredClaims
}

// NewResetToken signs a password reset token for userID.
func NewResetToken(secret string, userID uint64, passwordHash string, ttl time.Duration) (string, time.Time, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := ResetClaims{
        Version: PasswordVersion(passwordHash),
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            Audience:  jwt.ClaimStrings{AudienceReset},
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return "", time.Time{}, err
    }
    return signed, exp, nil
}

// ParseResetToken verifies a reset token and returns the user id and the
// password version it was issued against.
func ParseResetToken(secret, token string) (uint64, string, error) {
    var claims ResetClaims
    if err := parse(secret, token, AudienceReset, &claims); err != nil {
        return 0, "", err
    }
    uid, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil {
        return 0, "", ErrInvalidToken
    }
    return uid, claims.Version, nil
}

// PasswordVersion is a short fingerprint of a stored password hash.
func PasswordVersion(passwordHash string) string {
    return HashToken(passwordHash)[:16]
}

func parse(secret, token, audience string, claims jwt.Claims) error {
    opts := []jwt.ParserOption{
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
    }
    if audience != "" {
        opts = append(opts, jwt.WithAudience(audience))
    }
    _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
        return []byte(secret), nil
    }, opts...)
    if err != nil {
        return errors.Join(ErrInvalidToken, err)
    }
    return nil
}

// HashToken returns the SHA-256 hex digest of raw.  Session rows store this
// instead of the token id.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// RandomState returns n random bytes hex encoded, used for the redirect
// sign-in state parameter.
func RandomState(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
