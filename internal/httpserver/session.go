// internal/httpserver/session.go
//
// Session handle: an HS256 JWT carrying the game session ID.
// Responsibilities:
//   - Sign tokens (sid claim, configurable expiry) and set the session cookie.
//   - Extract a token from "Authorization: Bearer" or the cookie.
//   - requireSession middleware: 401 without a valid token, session ID in context otherwise.
//
// Note: the token identifies a game session, not a user.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "geoguess_session"

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// tokens signs and verifies session tokens.
type tokens struct {
	key    []byte
	ttl    time.Duration
	secure bool // production cookie attributes
	now    func() time.Time
}

func newTokens(key []byte, ttl time.Duration, secure bool) *tokens {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &tokens{key: key, ttl: ttl, secure: secure, now: time.Now}
}

// sign creates a token for sid and returns it with its expiry.
func (t *tokens) sign(sid string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := tok.SignedString(t.key)
	return ss, exp, err
}

// parse verifies raw and returns the session ID it carries.
func (t *tokens) parse(raw string) (string, error) {
	claims := &sessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", err
	}
	if !tok.Valid || claims.SID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SID, nil
}

// setCookie writes the session cookie with appropriate security attributes.
func (t *tokens) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if t.secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or the session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ctxSessionKey is the context key type for the session ID.
type ctxSessionKey struct{}

// sessionFromRequest returns the session ID of a valid token, if any.
func (s *Server) sessionFromRequest(r *http.Request) (string, bool) {
	raw := bearerOrCookie(r)
	if raw == "" {
		return "", false
	}
	sid, err := s.tokens.parse(raw)
	if err != nil {
		return "", false
	}
	return sid, true
}

// requireSession enforces a valid token and injects the session ID into the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerOrCookie(r) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		sid, ok := s.sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}
