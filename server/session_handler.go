package server

import (
	"net/http"
)

// SessionHandler returns the caller-facing session. A failed refresh is still a
// session: the error field tells the client to sign in again.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "no session")
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}
