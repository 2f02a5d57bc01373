// Package locale resolves the active site language for a request and keeps
// the user's choice in a cookie.
package locale

import (
	"context"
	"strings"
)

// Supported site locales. The first entry is the fallback when no default is
// configured.
const (
	English   = "en"
	Spanish   = "es"
	Polish    = "pl"
	Ukrainian = "uk"
)

var supported = []string{English, Spanish, Polish, Ukrainian}

// CookieName is the cookie holding the visitor's locale.
const CookieName = "locale"

// Source records where a locale decision came from.
type Source string

const (
	SourceURL     Source = "url"
	SourceCookie  Source = "cookie"
	SourceHeader  Source = "header"
	SourceDefault Source = "default"
)

// Preference is the resolved locale for one request.
type Preference struct {
	Code   string `json:"code"`
	Source Source `json:"source"`
}

// Supported returns a copy of the supported locale codes.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is one of the site locales.
func IsSupported(code string) bool {
	for _, s := range supported {
		if s == code {
			return true
		}
	}
	return false
}

// Normalize lower-cases code and returns it when supported, else fallback.
func Normalize(code, fallback string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupported(code) {
		return code
	}
	if IsSupported(fallback) {
		return fallback
	}
	return English
}

type contextKey struct{}

// WithPreference stores the resolved preference on ctx.
func WithPreference(ctx context.Context, pref Preference) context.Context {
	return context.WithValue(ctx, contextKey{}, pref)
}

// FromContext returns the preference stored by the middleware, if any.
func FromContext(ctx context.Context) (Preference, bool) {
	pref, ok := ctx.Value(contextKey{}).(Preference)
	return pref, ok
}

// CodeFromContext returns the request locale or English.
func CodeFromContext(ctx context.Context) string {
	if pref, ok := FromContext(ctx); ok {
		return pref.Code
	}
	return English
}
