package provider

// Keycloak realm endpoint paths, relative to the issuer URL.
const (
	authPath     = "/protocol/openid-connect/auth"
	tokenPath    = "/protocol/openid-connect/token"
	logoutPath   = "/protocol/openid-connect/logout"
	certsPath    = "/protocol/openid-connect/certs"
	userInfoPath = "/protocol/openid-connect/userinfo"
)

// Endpoints are the OpenID-Connect endpoints of one realm.
type Endpoints struct {
	Issuer   string
	Auth     string
	Token    string
	Logout   string
	JWKS     string
	UserInfo string
}

// EndpointsFor derives the well-known Keycloak endpoints from the realm issuer URL,
// e.g. "https://auth.example.com/realms/goat".
func EndpointsFor(issuer string) Endpoints {
	return Endpoints{
		Issuer:   issuer,
		Auth:     issuer + authPath,
		Token:    issuer + tokenPath,
		Logout:   issuer + logoutPath,
		JWKS:     issuer + certsPath,
		UserInfo: issuer + userInfoPath,
	}
}
