package oauthmodel

// ErrorResponse is the RFC 6749 error body returned by the token endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
