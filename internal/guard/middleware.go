package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// CookieName is the cookie carrying the token mirror.
const CookieName = "token"

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const tokenKey ContextKey = "token"

// TokenFromRequest returns the request's token: the token cookie first, then
// an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if v, err := url.QueryUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}

	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// Token returns the validated token the middleware stored on ctx.
func Token(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// WithToken returns ctx carrying token, as the middleware does.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Middleware enforces Check on every request. Browsers are redirected with
// 303; clients asking for JSON get a 401 body naming the redirect.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		d := g.Check(r.Context(), r.URL.Path, token)
		if d.Allow {
			if token != "" && d.Reason == ReasonValid {
				r = r.WithContext(WithToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
			return
		}

		g.logger.WithFields(logrus.Fields{
			"path":   r.URL.Path,
			"reason": d.Reason,
		}).Debug("navigation rejected")

		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":    "unauthorized",
				"reason":   string(d.Reason),
				"redirect": d.Redirect,
			})
			return
		}
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
