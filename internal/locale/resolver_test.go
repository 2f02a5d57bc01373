package locale

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"es-ES,es;q=0.9,en;q=0.5", "es", true},
		{"fr-FR,fr;q=0.9,pl;q=0.8,en;q=0.1", "pl", true},
		{"en;q=0.2,uk;q=0.9", "uk", true},
		{"de,fr", "", false},
		{"", "", false},
		{";;;===", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchAcceptLanguage(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("MatchAcceptLanguage(%q) = %q,%v want %q,%v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPathLocale(t *testing.T) {
	code, rest, ok := PathLocale("/ES/about/team")
	if !ok || code != "es" || rest != "/about/team" {
		t.Fatalf("unexpected %q %q %v", code, rest, ok)
	}
	code, rest, ok = PathLocale("/uk")
	if !ok || code != "uk" || rest != "/" {
		t.Fatalf("unexpected %q %q %v", code, rest, ok)
	}
	if _, rest, ok := PathLocale("/xx/about"); ok || rest != "/xx/about" {
		t.Fatalf("expected unsupported segment to be ignored")
	}
}

func TestResolvePriority(t *testing.T) {
	r := NewResolver("pl")

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})
	if pref := r.Resolve(req); pref.Code != "pl" || pref.Source != SourceDefault {
		t.Fatalf("expected default, got %+v", pref)
	}

	req.Header.Set("Accept-Language", "es")
	if pref := r.Resolve(req); pref.Code != "es" || pref.Source != SourceHeader {
		t.Fatalf("expected header, got %+v", pref)
	}
}

func TestNewResolverUnsupportedDefault(t *testing.T) {
	if got := NewResolver("de").Default(); got != English {
		t.Fatalf("expected english fallback, got %s", got)
	}
}

func TestMessageFallbacks(t *testing.T) {
	if Message("es", MsgRateLimited) == Message("en", MsgRateLimited) {
		t.Fatalf("expected translated message")
	}
	if Message("de", MsgRateLimited) != Message("en", MsgRateLimited) {
		t.Fatalf("expected english fallback")
	}
	if Message("en", "missing.key") != "missing.key" {
		t.Fatalf("expected key fallback")
	}
}

func TestCodeFromContext(t *testing.T) {
	if CodeFromContext(context.Background()) != English {
		t.Fatalf("expected english without preference")
	}
	ctx := WithPreference(context.Background(), Preference{Code: Ukrainian, Source: SourceURL})
	if CodeFromContext(ctx) != Ukrainian {
		t.Fatalf("expected stored locale")
	}
}
