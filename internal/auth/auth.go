// Package auth resolves the current viewer's identity from a signed session
// cookie. An absent, expired or tampered cookie simply means an anonymous
// viewer; it is never an error.
package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rotisserie/eris"
)

// Claims carries the authenticated user's identifier inside the session JWT.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

// Sessions issues and validates the session cookie.
type Sessions struct {
	cookieName string
	secret     []byte
	ttl        time.Duration
}

// NewSessions constructs a session manager with the given cookie name,
// signing secret and lifetime.
func NewSessions(cookieName string, secret []byte, ttl time.Duration) (*Sessions, error) {
	if cookieName == "" {
		return nil, eris.New("session cookie name is required")
	}
	if len(secret) == 0 {
		return nil, eris.New("session signing secret is required")
	}
	if ttl <= 0 {
		return nil, eris.New("session ttl must be positive")
	}

	return &Sessions{cookieName: cookieName, secret: secret, ttl: ttl}, nil
}

// IssueCookie builds a session cookie holding a signed JWT for the user.
func (s *Sessions) IssueCookie(userID uint) (*http.Cookie, error) {
	if userID == 0 {
		return nil, eris.New("user id is required")
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, eris.Wrap(err, "signing session token")
	}

	return &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie builds an expired cookie that removes the session.
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ViewerID returns the authenticated user's ID from the request, or zero for
// an anonymous viewer.
func (s *Sessions) ViewerID(r *http.Request) uint {
	if r == nil {
		return 0
	}

	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return 0
	}

	return s.viewerIDFromToken(cookie.Value)
}

func (s *Sessions) viewerIDFromToken(raw string) uint {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0
	}

	return claims.UserID
}
