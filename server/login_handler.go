package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-manager/server/authflowrepo"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// LoginHandler starts an authorization-code flow with PKCE against the identity
// provider. The optional callbackUrl query parameter is where the browser lands
// once signed in.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateRandomString(32)
		nonce := generateRandomString(32)
		codeVerifier := oauth2.GenerateVerifier()

		err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			CodeVerifier: codeVerifier,
			Nonce:        nonce,
			ReturnURL:    safeReturnURL(r.URL.Query().Get(paramCallbackURL)),
		})
		if err != nil {
			log.Err(err).Msg("Failed to store auth flow state")
			redirectWithError(w, r, errorCodeConfiguration)
			return
		}

		http.Redirect(w, r, s.idp.AuthCodeURL(state, nonce, codeVerifier), http.StatusSeeOther)
	}
}
