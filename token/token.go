package token

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-manager/internal/errors"
)

// ErrorCode marks a token whose most recent refresh failed. The empty value means
// the token is trusted.
type ErrorCode string

const (
	// RefreshAccessTokenError is set when the refresh_token grant failed for any
	// reason (network, provider 4xx/5xx, malformed response).
	RefreshAccessTokenError ErrorCode = "RefreshAccessTokenError"
)

// Token is the session credential held for one signed-in user. Only AccessToken and
// Error ever leave the session manager; see Session.
type Token struct {
	SessionID    string    `json:"sid"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IDToken      string    `json:"id_token"`
	ExpiresAt    int64     `json:"expires_at"` // seconds since epoch
	ProviderID   string    `json:"provider"`
	Error        ErrorCode `json:"error,omitempty"`
}

// Expiry returns ExpiresAt as a time.
func (t Token) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0)
}

// ValidAt reports whether the access token may still be used at now.
func (t Token) ValidAt(now time.Time) bool {
	return now.Before(t.Expiry())
}

// Session returns the caller-facing view of the token.
func (t Token) Session() Session {
	return Session{
		AccessToken: t.AccessToken,
		Error:       t.Error,
	}
}

// Session is what request handlers are allowed to see.
type Session struct {
	AccessToken string    `json:"access_token"`
	Error       ErrorCode `json:"error,omitempty"`
}

// Credentials are the tokens handed over by the identity provider on first sign-in.
type Credentials struct {
	ProviderID   string
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    int64 // absolute expiry in seconds since epoch, preferred when set
	ExpiresIn    int64 // relative expiry in seconds, used when ExpiresAt is zero
}

func (c Credentials) validate() error {
	switch {
	case c.AccessToken == "":
		return fmt.Errorf("%w: access token", errors.ErrMissingCredential)
	case c.RefreshToken == "":
		return fmt.Errorf("%w: refresh token", errors.ErrMissingCredential)
	case c.IDToken == "":
		return fmt.Errorf("%w: ID token", errors.ErrMissingCredential)
	}
	return nil
}
