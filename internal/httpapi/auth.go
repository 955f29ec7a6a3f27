package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService issues and validates bearer tokens for editor clients that
// authenticate via a signed token rather than a static API key.
//
// Grounded on internal/auth/jwt.go's JWTService/Claims/Generate/Validate
// shape, narrowed from a full User record to the single subject string
// this daemon's one local caller needs.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// Claims is the token payload: a subject identifying the caller plus the
// registered claims jwt.RegisteredClaims contributes (exp, iat, ...).
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// NewJWTService builds a JWTService signing with secret (HS256) and
// issuing tokens valid for expiry.
func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), expiry: expiry}
}

// Generate issues a signed token for subject.
func (s *JWTService) Generate(subject string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies tokenString, returning the subject it was
// issued for.
func (s *JWTService) Validate(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("httpapi: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("httpapi: parsing token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("httpapi: token is invalid")
	}
	if claims.Subject == "" {
		return "", errors.New("httpapi: token has empty subject")
	}
	return claims.Subject, nil
}

type ctxKey string

const subjectCtxKey ctxKey = "httpapi.subject"

// bearerAuth builds middleware that accepts a request whose Authorization
// header carries either the exact static apiKey or a token jwtSvc
// validates. An empty apiKey and nil jwtSvc disables auth entirely (the
// --inside-container / loopback-only deployment the CLI flags model).
func bearerAuth(apiKey string, jwtSvc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" && jwtSvc == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				writeError(w, http.StatusUnauthorized, "bad_request", "missing bearer token")
				return
			}
			if apiKey != "" && token == apiKey {
				next.ServeHTTP(w, r)
				return
			}
			if jwtSvc != nil {
				if subject, err := jwtSvc.Validate(token); err == nil {
					ctx := context.WithValue(r.Context(), subjectCtxKey, subject)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			writeError(w, http.StatusUnauthorized, "bad_request", "invalid bearer token")
		})
	}
}
