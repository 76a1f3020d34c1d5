// Package auth decodes the caller of an HTTP request. Identity is issued
// elsewhere; this package only verifies the signed and encrypted value that
// carries a caller's id and role, sent as a cookie or a bearer token.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/gorilla/securecookie"
)

const (
	cookieName = "slotsched_session"
	maxAge     = 14 * 24 * time.Hour
)

var ErrNoCaller = errors.New("no valid caller credentials")

type Sessions struct {
	sc *securecookie.SecureCookie
}

func NewSessions(hashKey, blockKey []byte) *Sessions {
	sc := securecookie.New(hashKey, blockKey)
	// keep cookie small and secure
	sc.MaxAge(int(maxAge.Seconds()))
	return &Sessions{sc: sc}
}

// Issue encodes a caller. The result is valid both as the session cookie
// value and as a bearer token.
func (s *Sessions) Issue(c user.Caller) (string, error) {
	if !c.Valid() {
		return "", errors.New("caller needs an id and a known role")
	}
	val := map[string]string{"uid": c.ID, "role": string(c.Role)}
	return s.sc.Encode(cookieName, val)
}

func (s *Sessions) Decode(token string) (user.Caller, error) {
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, token, &val); err != nil {
		return user.Caller{}, ErrNoCaller
	}
	c := user.Caller{ID: val["uid"], Role: user.Role(val["role"])}
	if !c.Valid() {
		return user.Caller{}, ErrNoCaller
	}
	return c, nil
}

func (s *Sessions) SetSession(w http.ResponseWriter, r *http.Request, c user.Caller) error {
	encoded, err := s.Issue(c)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(maxAge.Seconds()),
	})
	return nil
}

func (s *Sessions) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Caller reads the bearer token first, then the session cookie.
func (s *Sessions) Caller(r *http.Request) (user.Caller, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return user.Caller{}, ErrNoCaller
		}
		return s.Decode(strings.TrimSpace(token))
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return user.Caller{}, ErrNoCaller
	}
	return s.Decode(c.Value)
}

// RequireCaller rejects requests without a decodable caller with 401.
func (s *Sessions) RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Caller(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c user.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func CallerFromContext(ctx context.Context) (user.Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(user.Caller)
	return c, ok
}
