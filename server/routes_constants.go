package server

// Route path constants
const (
	RouteIndex = "/"

	// Auth routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthSignOut  = "/auth/signout"
	RouteAuthError    = "/auth/error"

	// API routes
	RouteAPISession = "/api/session"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// Query parameters understood by the auth routes.
const (
	paramCallbackURL      = "callbackUrl"
	paramState            = "state"
	paramCode             = "code"
	paramError            = "error"
	paramErrorDescription = "error_description"
)
