package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthenticated = errors.New("unauthenticated")

type borrowerKey struct{}

// Authenticator verifies HS256 session tokens whose subject is the borrower id.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an authenticator. An empty issuer accepts tokens
// from any issuer.
func NewAuthenticator(secret []byte, issuer string) *Authenticator {
	return &Authenticator{secret: secret, issuer: issuer}
}

// Issue signs a token for borrowerID valid for ttl from now.
func (a *Authenticator) Issue(borrowerID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   borrowerID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a bearer token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Join(errUnauthenticated, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errUnauthenticated
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// borrower id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, errUnauthenticated)
			return
		}

		borrowerID, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), borrowerKey{}, borrowerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BorrowerFromContext returns the authenticated borrower id.
func BorrowerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(borrowerKey{}).(string)
	return id, ok && id != ""
}
