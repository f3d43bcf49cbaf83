package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-manager/session"
	"github.com/rs/zerolog/log"
)

// SignOutHandler ends the local session and, when there is one, tells the identity
// provider. The cookie is cleared whatever the provider says.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := session.FromRequest(r); ok {
			env, err := s.codec.Decode(raw)
			if err != nil {
				log.Debug().Err(err).Msg("Signing out without a readable session")
			} else {
				s.manager.SignOut(r.Context(), env.Token)
			}
		}

		session.ClearCookie(w, r)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}
