// Package features resolves optional site sections once at startup.
package features

import (
	"net/http"
	"sort"

	"github.com/wolfman30/childcare-site/internal/config"
)

// Name identifies an optional section.
type Name string

const (
	Referrals    Name = "referrals"
	Resources    Name = "resources"
	ParentPortal Name = "parent_portal"
	Weather      Name = "weather"
)

// Set records which sections are on. Unknown names are off.
type Set map[Name]bool

// FromConfig reads the FEATURE_* switches.
func FromConfig(cfg *config.Config) Set {
	return Set{
		Referrals:    cfg.FeatureReferrals,
		Resources:    cfg.FeatureResources,
		ParentPortal: cfg.FeatureParentPortal,
		Weather:      cfg.FeatureWeather,
	}
}

// Enabled reports whether n is on.
func (s Set) Enabled(n Name) bool {
	return s[n]
}

// Active lists the enabled names, sorted.
func (s Set) Active() []string {
	var out []string
	for n, on := range s {
		if on {
			out = append(out, string(n))
		}
	}
	sort.Strings(out)
	return out
}

// Gate returns middleware that serves the wrapped handler when n is on and a
// plain 404 otherwise. The decision is made when the route is registered.
func (s Set) Gate(n Name) func(http.Handler) http.Handler {
	if s.Enabled(n) {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(http.Handler) http.Handler { return http.HandlerFunc(Disabled) }
}

// Disabled is the handler mounted in place of a switched-off section.
func Disabled(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}` + "\n"))
}
