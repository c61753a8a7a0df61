package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	cookieName = "webmail_session"

	// DefaultSessionMaxAge is how long an issued session stays valid.
	DefaultSessionMaxAge = 7 * 24 * time.Hour
)

// ErrInvalidSession is returned for missing, malformed, forged, or expired
// session tokens. Callers get one error for all cases.
var ErrInvalidSession = errors.New("api: invalid session")

// SessionManager issues and verifies HMAC-signed session tokens carrying a
// user ID. Tokens are self-contained; no server-side session state exists.
type SessionManager struct {
	secret []byte
	maxAge time.Duration
}

// NewSessionManager creates a session manager. An empty secret generates a
// random one, which invalidates outstanding sessions across restarts.
func NewSessionManager(secret string, maxAge time.Duration) (*SessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		generated := make([]byte, 32)
		if _, err := rand.Read(generated); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(generated)
	}
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &SessionManager{secret: []byte(secret), maxAge: maxAge}, nil
}

// CookieName returns the session cookie name.
func (m *SessionManager) CookieName() string {
	return cookieName
}

// MaxAge returns the configured session lifetime.
func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue creates a signed token for the given user.
func (m *SessionManager) Issue(userID int64, now time.Time) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("api: invalid user id %d", userID)
	}
	payload := strconv.FormatInt(userID, 10) + "|" + strconv.FormatInt(now.Unix(), 10)
	token := payload + "|" + m.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// Parse verifies a token and returns the user ID it carries.
func (m *SessionManager) Parse(token string, now time.Time) (int64, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidSession
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return 0, ErrInvalidSession
	}
	payload := parts[0] + "|" + parts[1]
	if !m.verify(payload, parts[2]) {
		return 0, ErrInvalidSession
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidSession
	}
	timestamp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidSession
	}
	if now.Sub(time.Unix(timestamp, 0)) > m.maxAge {
		return 0, ErrInvalidSession
	}
	return userID, nil
}

func (m *SessionManager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *SessionManager) verify(payload, signature string) bool {
	expected := m.sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
