package locale

import (
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/language"
)

// bypassPrefixes never get a locale prefix.
var bypassPrefixes = []string{"/api/", "/static/", "/assets/", "/_next/"}

var bypassExact = map[string]bool{
	"/api":         true,
	"/health":      true,
	"/metrics":     true,
	"/favicon.ico": true,
	"/robots.txt":  true,
}

// Resolver decides the locale for a request.
type Resolver struct {
	defaultLocale string
}

// NewResolver returns a resolver falling back to defaultLocale, or English
// when defaultLocale is not supported.
func NewResolver(defaultLocale string) *Resolver {
	return &Resolver{defaultLocale: Normalize(defaultLocale, English)}
}

// Default returns the configured fallback locale.
func (r *Resolver) Default() string {
	return r.defaultLocale
}

// Bypass reports whether the path is exempt from locale handling: static
// assets, API routes and anything that looks like a file.
func Bypass(p string) bool {
	if bypassExact[p] {
		return true
	}
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return path.Ext(path.Base(p)) != ""
}

// PathLocale returns the locale carried by the first path segment and the
// remaining path. Unsupported segments are not locales.
func PathLocale(p string) (code, rest string, ok bool) {
	trimmed := strings.TrimPrefix(p, "/")
	segment, remainder, _ := strings.Cut(trimmed, "/")
	segment = strings.ToLower(segment)
	if !IsSupported(segment) {
		return "", p, false
	}
	return segment, "/" + remainder, true
}

// Resolve applies URL > cookie > Accept-Language > default.
func (r *Resolver) Resolve(req *http.Request) Preference {
	if code, _, ok := PathLocale(req.URL.Path); ok {
		return Preference{Code: code, Source: SourceURL}
	}
	if code, ok := cookieLocale(req); ok {
		return Preference{Code: code, Source: SourceCookie}
	}
	if code, ok := MatchAcceptLanguage(req.Header.Get("Accept-Language")); ok {
		return Preference{Code: code, Source: SourceHeader}
	}
	return Preference{Code: r.defaultLocale, Source: SourceDefault}
}

func cookieLocale(req *http.Request) (string, bool) {
	c, err := req.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	code := strings.ToLower(strings.TrimSpace(c.Value))
	return code, IsSupported(code)
}

// MatchAcceptLanguage returns the highest-weighted supported language in an
// Accept-Language header. Region subtags are ignored.
func MatchAcceptLanguage(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	for _, tag := range tags {
		base, _ := tag.Base()
		if code := base.String(); IsSupported(code) {
			return code, true
		}
	}
	return "", false
}
