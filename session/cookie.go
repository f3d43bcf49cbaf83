package session

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// CookieName is the session cookie. Values larger than maxChunkSize are split over
// CookieName.0, CookieName.1, ...
const CookieName = "goat.session-token"

const maxChunkSize = 3800

// SetCookie writes value as the session cookie, chunking if required and expiring any
// chunks left over from a previous, larger value.
func (c *Codec) SetCookie(w http.ResponseWriter, r *http.Request, value string) {
	maxAge := int(c.maxAge.Seconds())
	existing := existingCookieNames(r)
	written := map[string]struct{}{}

	if len(value) <= maxChunkSize {
		setCookie(w, r, CookieName, value, maxAge)
		written[CookieName] = struct{}{}
	} else {
		for i := 0; len(value) > 0; i++ {
			n := min(maxChunkSize, len(value))
			name := chunkName(i)
			setCookie(w, r, name, value[:n], maxAge)
			written[name] = struct{}{}
			value = value[n:]
		}
	}

	for _, name := range existing {
		if _, ok := written[name]; !ok {
			setCookie(w, r, name, "", -1)
		}
	}
}

// ClearCookie expires the session cookie and every chunk of it.
func ClearCookie(w http.ResponseWriter, r *http.Request) {
	names := existingCookieNames(r)
	if len(names) == 0 {
		names = []string{CookieName}
	}
	for _, name := range names {
		setCookie(w, r, name, "", -1)
	}
}

// FromRequest returns the raw envelope, reassembling chunks.
func FromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	var b strings.Builder
	for i := 0; ; i++ {
		c, err := r.Cookie(chunkName(i))
		if err != nil {
			break
		}
		b.WriteString(c.Value)
	}
	return b.String(), b.Len() > 0
}

func chunkName(i int) string {
	return fmt.Sprintf("%s.%d", CookieName, i)
}

func existingCookieNames(r *http.Request) []string {
	var names []string
	for _, c := range r.Cookies() {
		if c.Name == CookieName {
			names = append(names, c.Name)
			continue
		}
		suffix, ok := strings.CutPrefix(c.Name, CookieName+".")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(suffix); err == nil {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// IsSecure reports whether the request arrived over HTTPS, directly or via a proxy.
func IsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
