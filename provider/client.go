package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"golang.org/x/oauth2"
)

const maxErrorBody = 64 << 10

// IDClaims are the identity token claims the session manager cares about.
type IDClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Nonce   string `json:"nonce"`
}

// Client talks to a single OpenID-Connect realm.
type Client struct {
	id         string
	endpoints  Endpoints
	logoutURL  *url.URL
	oauth2     *oauth2.Config
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
	nowFunc    func() time.Time
}

type ClientOption func(*Client)

// WithHTTPClient sets the client used for every provider call. Defaults to
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithVerifier replaces the JWKS-backed identity token verifier.
func WithVerifier(v *oidc.IDTokenVerifier) ClientOption {
	return func(c *Client) {
		c.verifier = v
	}
}

func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New builds a client for the configured realm. No discovery request is made; the
// endpoints are derived from the issuer.
func New(ctx context.Context, cfg config.ProviderConfig, redirectURL string, options ...ClientOption) (*Client, error) {
	if cfg.GetIssuer() == "" {
		return nil, fmt.Errorf("[provider New] issuer is required")
	}

	endpoints := EndpointsFor(cfg.GetIssuer())
	logoutURL, err := url.Parse(endpoints.Logout)
	if err != nil {
		return nil, fmt.Errorf("[provider New] invalid logout url: %w", err)
	}

	c := &Client{
		id:        cfg.GetProviderID(),
		endpoints: endpoints,
		logoutURL: logoutURL,
		oauth2: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoints.Auth,
				TokenURL:  endpoints.Token,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: redirectURL,
			Scopes:      cfg.GetScopes(),
		},
		httpClient: http.DefaultClient,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}

	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   endpoints.Issuer,
		AuthURL:     endpoints.Auth,
		TokenURL:    endpoints.Token,
		UserInfoURL: endpoints.UserInfo,
		JWKSURL:     endpoints.JWKS,
		Algorithms:  []string{oidc.RS256},
	}
	// The key set keeps this context for background JWKS fetches.
	c.provider = providerConfig.NewProvider(oidc.ClientContext(context.WithoutCancel(ctx), c.httpClient))

	if c.verifier == nil {
		c.verifier = c.provider.Verifier(&oidc.Config{
			ClientID: cfg.GetClientID(),
			Now:      c.nowFunc,
		})
	}
	return c, nil
}

// ID returns the provider id stamped on every token this client issues.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL returns the provider login URL for an authorization-code flow with PKCE.
func (c *Client) AuthCodeURL(state, nonce, codeVerifier string) string {
	return c.oauth2.AuthCodeURL(state, oidc.Nonce(nonce), oauth2.S256ChallengeOption(codeVerifier))
}

// Exchange trades an authorization code for the initial token set.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (*oauthmodel.TokenResponse, error) {
	tok, err := c.oauth2.Exchange(c.clientContext(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fromRetrieveError(err)
	}
	return responseFrom(tok), nil
}

// Refresh performs one refresh_token grant. Client credentials travel in the form body.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	tok, err := c.oauth2.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fromRetrieveError(err)
	}
	return responseFrom(tok), nil
}

// VerifyIDToken checks signature, issuer, audience and expiry of a raw identity token.
// The nonce is returned for the caller to compare.
func (c *Client) VerifyIDToken(ctx context.Context, rawIDToken string) (*IDClaims, error) {
	idToken, err := c.verifier.Verify(c.clientContext(ctx), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[provider VerifyIDToken] %w", err)
	}

	var claims IDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[provider VerifyIDToken] failed to extract claims: %w", err)
	}
	return &claims, nil
}

// LogoutURL returns the realm logout endpoint carrying the identity token as hint.
func (c *Client) LogoutURL(idToken string) string {
	u := *c.logoutURL
	q := u.Query()
	q.Set(oauthmodel.ParamIDTokenHint, idToken)
	u.RawQuery = q.Encode()
	return u.String()
}

// EndSession issues the logout GET. The status is returned even when the provider
// answered with an error status.
func (c *Client) EndSession(ctx context.Context, idToken string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LogoutURL(idToken), nil)
	if err != nil {
		return 0, fmt.Errorf("[provider EndSession] %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("[provider EndSession] %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.StatusCode, nil
}

// responseFrom reads the fields straight from the raw response, since the oauth2
// package back-fills a missing refresh_token with the one that was sent.
func responseFrom(tok *oauth2.Token) *oauthmodel.TokenResponse {
	resp := &oauthmodel.TokenResponse{
		AccessToken:      tok.AccessToken,
		ExpiresIn:        int64Extra(tok, "expires_in"),
		RefreshExpiresIn: int64Extra(tok, "refresh_expires_in"),
		Expiry:           tok.Expiry,
	}
	if rt, ok := tok.Extra(oauthmodel.ParamRefreshToken).(string); ok && rt != "" {
		resp.RefreshToken = &rt
	}
	if id, ok := tok.Extra("id_token").(string); ok && id != "" {
		resp.IdToken = &id
	}
	return resp
}

func int64Extra(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
