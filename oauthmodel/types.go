package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens on first sign-in.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Request body: client_id, client_secret, grant_type, refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// CodeMethodType represents the PKCE challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 is the only method this client sends.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// Form and query parameter names shared by the provider endpoints.
const (
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamGrantType    = "grant_type"
	ParamRefreshToken = "refresh_token"
	ParamIDTokenHint  = "id_token_hint"
	ParamNonce        = "nonce"
)
