package locale

import (
	"net/http"
	"time"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

const cookieMaxAge = 365 * 24 * time.Hour

// MiddlewareConfig configures the locale middleware.
type MiddlewareConfig struct {
	Resolver *Resolver
	// SecureCookie marks the cookie Secure; enabled in production.
	SecureCookie bool
	Logger       *logging.Logger
}

// Middleware redirects unprefixed page URLs to their localized form and keeps
// the locale cookie in sync with the URL. Requests with a supported prefix
// pass through with the Preference stored on the context.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(English)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Bypass(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			pref := resolver.Resolve(r)
			if pref.Source != SourceURL {
				target := localizedPath(pref.Code, r.URL.Path)
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				SetCookie(w, pref.Code, cfg.SecureCookie)
				logger.Debug("locale redirect", "path", r.URL.Path, "locale", pref.Code, "source", string(pref.Source))
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}

			if current, ok := cookieLocale(r); !ok || current != pref.Code {
				SetCookie(w, pref.Code, cfg.SecureCookie)
			}
			w.Header().Set("Content-Language", pref.Code)
			next.ServeHTTP(w, r.WithContext(WithPreference(r.Context(), pref)))
		})
	}
}

// SetCookie writes the long-lived locale cookie.
func SetCookie(w http.ResponseWriter, code string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func localizedPath(code, p string) string {
	if p == "" || p == "/" {
		return "/" + code
	}
	return "/" + code + p
}
