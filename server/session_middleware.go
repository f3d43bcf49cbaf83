package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-session-manager/session"
	"github.com/jrsteele09/go-session-manager/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the caller-facing token.Session
const ContextKeySession ContextKey = "session"

// RequireSession evaluates the session token carried by the envelope cookie before the
// handler runs. Expired access tokens are refreshed here and the cookie is rewritten
// when its content changed or it is older than one refresh cycle.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := session.FromRequest(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "no session")
				return
			}

			env, err := s.codec.Decode(raw)
			if err != nil {
				log.Debug().Err(err).Msg("Discarding unreadable session")
				session.ClearCookie(w, r)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
				return
			}

			tok, err := s.manager.Evaluate(r.Context(), &env.Token, nil)
			if err != nil {
				logError(r.Method, r.URL.Path, err)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			if s.codec.NeedsReissue(env, tok) {
				s.writeSession(w, r, tok)
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, tok.Session())
			next(w, r.WithContext(ctx))
		}
	}
}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (token.Session, bool) {
	sess, ok := ctx.Value(ContextKeySession).(token.Session)
	return sess, ok
}
