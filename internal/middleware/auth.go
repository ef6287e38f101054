package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type authCtxKey int

const (
	hostKey        authCtxKey = 1
	participantKey authCtxKey = 2
)

// Claims identify a registered host account.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParticipantClaims identify one participant of a hosted session. They
// are issued at join time and carry no host privileges.
type ParticipantClaims struct {
	SessionCode   string `json:"sid"`
	ParticipantID string `json:"pid"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

func secret() []byte {
	s := os.Getenv("OVERLAP_JWT_SECRET")
	if s == "" {
		s = "overlap-dev-secret"
	}
	return []byte(s)
}

// SignToken issues a host token.
func SignToken(uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{UID: uid, Email: email, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(ttl))}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// SignParticipantToken issues a participant token scoped to one hosted session.
func SignParticipantToken(sessionCode, participantID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ParticipantClaims{SessionCode: sessionCode, ParticipantID: participantID, Name: name, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(ttl))}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

func parseToken(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) { return secret(), nil })
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.UID != "" {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func parseParticipantToken(tok string) (*ParticipantClaims, error) {
	t, err := jwt.ParseWithClaims(tok, &ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) { return secret(), nil })
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*ParticipantClaims); ok && t.Valid && c.ParticipantID != "" {
		return c, nil
	}
	return nil, errors.New("invalid participant token")
}

// WithAuth attaches host or participant claims to the context when a
// valid bearer token is present. Requests without a token pass through.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			ctx := r.Context()
			if c, err := parseToken(tok); err == nil {
				ctx = context.WithValue(ctx, hostKey, c)
			} else if pc, perr := parseParticipantToken(tok); perr == nil {
				ctx = context.WithValue(ctx, participantKey, pc)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that carry no host claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(hostKey).(*Claims); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HostIDFromContext returns the authenticated host id, if any.
func HostIDFromContext(ctx context.Context) (string, bool) {
	if c, ok := ctx.Value(hostKey).(*Claims); ok && c.UID != "" {
		return c.UID, true
	}
	return "", false
}

// ParticipantFromContext returns the participant claims attached by WithAuth.
func ParticipantFromContext(ctx context.Context) (*ParticipantClaims, bool) {
	if c, ok := ctx.Value(participantKey).(*ParticipantClaims); ok {
		return c, true
	}
	return nil, false
}
