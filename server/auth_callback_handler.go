package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/token"
	"github.com/rs/zerolog/log"
)

// Error codes shown on the error page.
const (
	errorCodeAccessDenied  = "AccessDenied"
	errorCodeCallback      = "Callback"
	errorCodeState         = "OAuthState"
	errorCodeSignIn        = "OAuthSignin"
	errorCodeSession       = "SessionRequired"
	errorCodeConfiguration = "Configuration"
)

// CallbackHandler completes the authorization-code flow: it checks the state, exchanges
// the code, verifies the identity token and stores the first session token in the
// envelope cookie.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		state := query.Get(paramState)
		code := query.Get(paramCode)

		if providerErr := query.Get(paramError); providerErr != "" {
			log.Warn().
				Str("error", providerErr).
				Str("error_description", query.Get(paramErrorDescription)).
				Msg("Authorization failed at the identity provider")
			redirectWithError(w, r, errorCodeAccessDenied)
			return
		}

		if code == "" || state == "" {
			redirectWithError(w, r, errorCodeCallback)
			return
		}

		authState, err := s.authState.Take(state)
		if err != nil {
			log.Warn().Err(errors.Wrapf(errors.ErrInvalidState, "%v", err)).Msg("Rejected callback")
			redirectWithError(w, r, errorCodeState)
			return
		}

		resp, err := s.idp.Exchange(r.Context(), code, authState.CodeVerifier)
		if err != nil {
			log.Err(err).Msg("Token exchange failed")
			redirectWithError(w, r, errorCodeCallback)
			return
		}

		idToken := ""
		if resp.IdToken != nil {
			idToken = *resp.IdToken
		}
		if idToken != "" {
			claims, err := s.idp.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				log.Err(err).Msg("ID token verification failed")
				redirectWithError(w, r, errorCodeCallback)
				return
			}
			if claims.Nonce != authState.Nonce {
				log.Warn().Err(errors.ErrInvalidNonce).Str("subject", claims.Subject).Msg("Rejected callback")
				redirectWithError(w, r, errorCodeCallback)
				return
			}
		}

		creds := token.Credentials{
			ProviderID:  s.idp.ID(),
			AccessToken: resp.AccessToken,
			IDToken:     idToken,
			ExpiresIn:   resp.ExpiresIn,
		}
		if resp.RefreshToken != nil {
			creds.RefreshToken = *resp.RefreshToken
		}
		if !resp.Expiry.IsZero() {
			creds.ExpiresAt = resp.Expiry.Unix()
		}

		tok, err := s.manager.Evaluate(r.Context(), nil, &creds)
		if err != nil {
			redirectWithError(w, r, errorCodeSignIn)
			return
		}

		if !s.writeSession(w, r, tok) {
			redirectWithError(w, r, errorCodeSignIn)
			return
		}

		http.Redirect(w, r, safeReturnURL(authState.ReturnURL), http.StatusSeeOther)
	}
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, tok *token.Token) bool {
	value, err := s.codec.Encode(tok)
	if err != nil {
		log.Err(err).Str("session_id", tok.SessionID).Msg("Failed to encode session")
		return false
	}
	s.codec.SetCookie(w, r, value)
	return true
}
