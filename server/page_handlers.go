package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-manager/session"
)

var errorMessages = map[string]string{
	errorCodeAccessDenied:  "Access was denied by the identity provider.",
	errorCodeCallback:      "The identity provider response could not be verified.",
	errorCodeState:         "The sign-in request expired or was already used.",
	errorCodeSignIn:        "The identity provider did not return a complete set of credentials.",
	errorCodeSession:       "Please sign in to continue.",
	errorCodeConfiguration: "The server could not start the sign-in.",
}

const defaultErrorMessage = "Something went wrong while signing in."

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signedIn := false
		if raw, ok := session.FromRequest(r); ok {
			_, err := s.codec.Decode(raw)
			signedIn = err == nil
		}

		renderTemplate(w, http.StatusOK, indexTemplate, map[string]any{
			"AppName":    s.config.GetAppName(),
			"SignedIn":   signedIn,
			"LoginURL":   RouteAuthLogin,
			"SignOutURL": RouteAuthSignOut,
		})
	}
}

// ErrorPageHandler renders the sign-in error page for the error query parameter.
func (s *Server) ErrorPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get(paramError)
		message, ok := errorMessages[code]
		if !ok {
			message = defaultErrorMessage
		}

		renderTemplate(w, http.StatusOK, errorTemplate, map[string]any{
			"AppName":  s.config.GetAppName(),
			"Code":     code,
			"Message":  message,
			"LoginURL": RouteAuthLogin,
		})
	}
}
