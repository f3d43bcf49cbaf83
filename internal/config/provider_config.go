package config

import "strings"

const (
	clientIDEnvVar     = "KEYCLOAK_CLIENT_ID"
	clientSecretEnvVar = "KEYCLOAK_CLIENT_SECRET"
	issuerEnvVar       = "KEYCLOAK_ISSUER"

	// KeycloakProviderID identifies tokens issued by the configured Keycloak realm.
	KeycloakProviderID = "keycloak"
)

// ProviderConfig describes the OpenID-Connect provider the session manager talks to.
type ProviderConfig interface {
	GetProviderID() string
	GetClientID() string
	GetClientSecret() string
	GetIssuer() string
	GetScopes() []string
}

type Provider struct {
	ClientID     string
	ClientSecret string
	Issuer       string
}

var _ ProviderConfig = Provider{}

func loadProvider() Provider {
	return Provider{
		ClientID:     GetEnv(clientIDEnvVar, ""),
		ClientSecret: GetEnv(clientSecretEnvVar, ""),
		Issuer:       strings.TrimRight(GetEnv(issuerEnvVar, ""), "/"),
	}
}

func (Provider) GetProviderID() string {
	return KeycloakProviderID
}

func (p Provider) GetClientID() string {
	return p.ClientID
}

func (p Provider) GetClientSecret() string {
	return p.ClientSecret
}

// GetIssuer returns the realm URL, e.g. "https://auth.example.com/realms/goat".
func (p Provider) GetIssuer() string {
	return p.Issuer
}

func (Provider) GetScopes() []string {
	return []string{"openid", "email", "profile", "offline_access"}
}
