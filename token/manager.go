package token

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/internal/metrics"
	"github.com/jrsteele09/go-session-manager/internal/utils"
	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Provider is the identity provider as seen by the Manager.
type Provider interface {
	// ID identifies the provider that issued a token.
	ID() string
	// Refresh performs one refresh_token grant.
	Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error)
	// EndSession performs the provider logout handshake and returns the HTTP status.
	EndSession(ctx context.Context, idToken string) (int, error)
}

// Manager decides, per request, whether a session token is reused, refreshed or
// created, and performs the sign-out handshake.
type Manager struct {
	provider     Provider
	nowFunc      func() time.Time
	newSessionID func() string
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	flight       singleflight.Group
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithSessionIDFunc(f func() string) ManagerOption {
	return func(m *Manager) {
		m.newSessionID = f
	}
}

func NewManager(provider Provider, options ...ManagerOption) *Manager {
	m := &Manager{
		provider: provider,
		logger:   log.Logger,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	if m.newSessionID == nil {
		m.newSessionID = uuid.NewString
	}
	return m
}

// Evaluate returns the token to use for the current request. creds is only non-nil on
// the first sign-in; current is nil when there is no prior session.
func (m *Manager) Evaluate(ctx context.Context, current *Token, creds *Credentials) (*Token, error) {
	if creds != nil {
		return m.SignIn(*creds)
	}
	if current == nil {
		return nil, errors.ErrNoSession
	}

	if current.ValidAt(m.nowFunc()) {
		m.metrics.Evaluation(metrics.OutcomeReused)
		return current, nil
	}

	m.logger.Info().
		Str("session_id", current.SessionID).
		Int64("expires_at", current.ExpiresAt).
		Msg("Access token expired")
	return m.Refresh(ctx, *current), nil
}

// SignIn builds the initial token from provider credentials. A missing credential
// aborts the sign-in.
func (m *Manager) SignIn(creds Credentials) (*Token, error) {
	if err := creds.validate(); err != nil {
		m.logger.Error().Err(err).Str("provider", creds.ProviderID).Msg("Sign-in aborted")
		return nil, err
	}

	expiresAt := creds.ExpiresAt
	if expiresAt == 0 {
		expiresAt = m.nowFunc().Unix() + creds.ExpiresIn
	}

	providerID := creds.ProviderID
	if providerID == "" {
		providerID = m.provider.ID()
	}

	t := &Token{
		SessionID:    m.newSessionID(),
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		IDToken:      creds.IDToken,
		ExpiresAt:    expiresAt,
		ProviderID:   providerID,
	}
	m.metrics.Evaluation(metrics.OutcomeSignedIn)
	m.logger.Info().
		Str("session_id", t.SessionID).
		Int64("expires_at", t.ExpiresAt).
		Msg("Signed in")
	return t, nil
}

// Refresh exchanges the refresh token for a new access token. It never fails: on error
// the previous token is returned unchanged apart from Error being set.
// Concurrent refreshes of the same session share one provider call.
func (m *Manager) Refresh(ctx context.Context, current Token) *Token {
	key := current.SessionID
	if key == "" {
		key = current.RefreshToken
	}

	v, _, shared := m.flight.Do(key, func() (interface{}, error) {
		return m.refresh(ctx, current), nil
	})
	if shared {
		m.logger.Debug().Str("session_id", current.SessionID).Msg("Joined in-flight token refresh")
	}

	result := *v.(*Token)
	return &result
}

func (m *Manager) refresh(ctx context.Context, current Token) *Token {
	m.metrics.RefreshRequest()

	resp, err := m.provider.Refresh(ctx, current.RefreshToken)
	if err == nil && resp.AccessToken == "" {
		err = errors.Wrapf(errors.ErrInvalidToken, "refresh response missing access token")
	}
	if err != nil {
		m.logger.Error().Err(err).Str("session_id", current.SessionID).Msg("Error refreshing access token")
		m.metrics.Evaluation(metrics.OutcomeRefreshFailed)

		failed := current
		failed.Error = RefreshAccessTokenError
		return &failed
	}

	expiresAt := m.nowFunc().Unix() + resp.ExpiresIn
	m.logger.Info().
		Str("session_id", current.SessionID).
		Int64("expires_in", resp.ExpiresIn).
		Int64("expires_at", expiresAt).
		Int64("refresh_expires_in", resp.RefreshExpiresIn).
		Msg("Token was refreshed")
	m.metrics.Evaluation(metrics.OutcomeRefreshed)

	return &Token{
		SessionID:    current.SessionID,
		AccessToken:  resp.AccessToken,
		RefreshToken: utils.ValueOr(resp.RefreshToken, current.RefreshToken),
		IDToken:      utils.ValueOr(resp.IdToken, current.IDToken),
		ExpiresAt:    expiresAt,
		ProviderID:   m.provider.ID(),
	}
}

// SignOut performs the best-effort logout handshake with the provider. The local
// session is over regardless of the outcome, so nothing is returned.
func (m *Manager) SignOut(ctx context.Context, current Token) {
	if current.ProviderID != m.provider.ID() {
		m.metrics.SignOut(metrics.ResultSkipped)
		return
	}

	status, err := m.provider.EndSession(ctx, current.IDToken)
	if err != nil {
		m.logger.Error().Err(err).Int("status", status).Str("session_id", current.SessionID).
			Msg("Unable to perform post-logout handshake")
		m.metrics.SignOut(metrics.ResultFailed)
		return
	}

	m.logger.Info().Int("status", status).Str("session_id", current.SessionID).
		Msg("Completed post-logout handshake")
	m.metrics.SignOut(metrics.ResultOK)
}
