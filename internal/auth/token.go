package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Namespace separates user and worker credentials. A token issued in one
// namespace never verifies in the other.
type Namespace string

const (
	NamespaceUser   Namespace = "user"
	NamespaceWorker Namespace = "worker"
)

// Reason explains why a credential was rejected.
type Reason string

const (
	ReasonMissing          Reason = "missing"
	ReasonMalformed        Reason = "malformed"
	ReasonExpired          Reason = "expired"
	ReasonInvalidSignature Reason = "invalid-signature"
)

// VerifyError is returned for every rejected credential.
type VerifyError struct {
	Reason Reason
	Err    error
}

func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("credential rejected (%s)", e.Reason)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// Claims is the JWT body. Exactly one of UserID and WorkerID is set.
type Claims struct {
	UserID   string    `json:"userId,omitempty"`
	WorkerID string    `json:"workerId,omitempty"`
	Scope    Namespace `json:"scope"`
	jwt.RegisteredClaims
}

func (c *Claims) subject(ns Namespace) string {
	if ns == NamespaceWorker {
		return c.WorkerID
	}
	return c.UserID
}

// TokenIssuer issues and verifies HS256 tokens for one namespace.
type TokenIssuer struct {
	ns     Namespace
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl <= 0 means seven days.
func NewTokenIssuer(ns Namespace, secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{ns: ns, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Namespace returns the issuer's namespace.
func (t *TokenIssuer) Namespace() Namespace {
	return t.ns
}

// Issue signs a token for subjectID.
func (t *TokenIssuer) Issue(subjectID string) (string, error) {
	now := t.now()
	claims := Claims{
		Scope: t.ns,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if t.ns == NamespaceWorker {
		claims.WorkerID = subjectID
	} else {
		claims.UserID = subjectID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject id of a valid token or a *VerifyError.
func (t *TokenIssuer) Verify(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", &VerifyError{Reason: ReasonMissing}
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", &VerifyError{Reason: ReasonMalformed, Err: err}
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", &VerifyError{Reason: ReasonExpired, Err: err}
		default:
			return "", &VerifyError{Reason: ReasonInvalidSignature, Err: err}
		}
	}

	if claims.Scope != t.ns {
		return "", &VerifyError{Reason: ReasonInvalidSignature, Err: fmt.Errorf("scope %q", claims.Scope)}
	}
	subject := claims.subject(t.ns)
	if subject == "" {
		return "", &VerifyError{Reason: ReasonMalformed, Err: errors.New("token carries no subject")}
	}
	return subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", &VerifyError{Reason: ReasonMissing}
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", &VerifyError{Reason: ReasonMissing}
	}
	return token, nil
}

// ReasonOf returns the rejection reason carried by err, or invalid-signature.
func ReasonOf(err error) Reason {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ReasonInvalidSignature
}
