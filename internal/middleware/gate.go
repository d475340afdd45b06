// Package middleware provides the HTTP middleware chain: access gate, request
// logging, panic recovery and metrics.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/cinescope/backend/internal/auth"
)

// routeClass is the coarse classification the gate assigns to a request path.
type routeClass int

const (
	classStatic routeClass = iota
	classPublicPage
	classPublicAPI
	classProtected
)

var staticPrefixes = []string{
	"/static/",
	"/assets/",
}

// publicPages are reachable without a session. Movie listing and detail pages
// live here too: the catalog is browsable anonymously.
var publicPages = map[string]bool{
	"/":                true,
	"/login":           true,
	"/signup":          true,
	"/forgot-password": true,
	"/reset-password":  true,
	"/movies":          true,
}

var publicAPIPrefixes = []string{
	"/auth/",
	"/healthz",
	"/metrics",
}

// authPages are the exact paths an already-authenticated user is bounced away
// from. Deliberately not generalized to other public routes.
var authPages = map[string]bool{
	"/login":  true,
	"/signup": true,
}

func classify(path string) routeClass {
	if path == "/favicon.ico" {
		return classStatic
	}
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return classStatic
		}
	}
	for _, prefix := range publicAPIPrefixes {
		if strings.HasPrefix(path, prefix) {
			return classPublicAPI
		}
	}
	if publicPages[path] || strings.HasPrefix(path, "/movies/") {
		return classPublicPage
	}
	return classProtected
}

// AccessGate enforces coarse authentication presence at the perimeter. It only
// checks that the session cookie exists; cryptographic verification happens in
// auth.RequireUser and in the handlers that consume the user ID. Protected
// pages redirect to the login page with the original destination preserved;
// protected API routes get a structured 401 instead.
func AccessGate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasSession := hasSessionCookie(r)

			switch classify(r.URL.Path) {
			case classStatic, classPublicAPI:
				next.ServeHTTP(w, r)
				return

			case classPublicPage:
				if hasSession && authPages[r.URL.Path] {
					http.Redirect(w, r, "/", http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return

			case classProtected:
				if hasSession {
					next.ServeHTTP(w, r)
					return
				}
				if strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"Not authenticated"}`))
					return
				}
				callback := url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, "/login?callbackUrl="+callback, http.StatusFound)
				return
			}
		})
	}
}

func hasSessionCookie(r *http.Request) bool {
	cookie, err := r.Cookie(auth.SessionCookieName)
	return err == nil && cookie.Value != ""
}
