package oauthmodel

import "time"

// TokenResponse is the normalised result of a token endpoint call
// (authorization_code or refresh_token grant) against the identity provider.
type TokenResponse struct {
	// AccessToken is the credential presented to resource servers.
	// Always present on a successful response.
	AccessToken string `json:"access_token"`

	// RefreshToken is set only when the provider returned one. Keycloak rotates it on
	// every refresh when "Revoke Refresh Token" is enabled for the realm.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// IdToken is set only when the provider returned one.
	IdToken *string `json:"id_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// RefreshExpiresIn is the refresh token lifetime in seconds. Informational only.
	RefreshExpiresIn int64 `json:"refresh_expires_in,omitempty"`

	// Expiry is the absolute access token expiry computed by the HTTP client at
	// receipt time. Used on first sign-in where an absolute expiry is preferred.
	Expiry time.Time `json:"-"`
}
