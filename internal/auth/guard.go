package auth

import (
	"net/http"
	"strings"
)

var (
	protectedPages = []string{"/dashboard", "/tasks", "/calendar", "/profile"}
	guestPages     = []string{"/login", "/signup", "/forgot-password"}
)

// PageGuard redirects page requests by session state: protected pages send
// anonymous visitors to /login, guest pages send signed-in users to /dashboard.
// Paths under /api are passed through untouched.
func PageGuard(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			signedIn := false
			if token := TokenFromRequest(r); token != "" {
				_, err := v.Verify(token)
				signedIn = err == nil
			}

			switch {
			case path == "/":
				if signedIn {
					http.Redirect(w, r, "/dashboard", http.StatusFound)
				} else {
					http.Redirect(w, r, "/login", http.StatusFound)
				}
				return
			case !signedIn && matchesAny(path, protectedPages):
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			case signedIn && matchesAny(path, guestPages):
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
