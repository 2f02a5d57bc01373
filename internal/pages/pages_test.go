package pages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

func router() http.Handler {
	r := chi.NewRouter()
	NewHandler("Little Sprouts", logging.Discard()).Routes(r)
	return r
}

func get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPageRendersLocalizedTitle(t *testing.T) {
	rec := get("/es/programs")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="es">`)
	assert.Contains(t, body, "<title>Programas | Little Sprouts</title>")
	assert.Contains(t, body, `<a href="/es/programs" aria-current="page">Programas</a>`)
	assert.Contains(t, body, `hreflang="uk" href="/uk/programs"`)
	assert.Equal(t, "es", rec.Header().Get("Content-Language"))
}

func TestHomePage(t *testing.T) {
	for _, target := range []string{"/pl", "/pl/"} {
		rec := get(target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "<h1>Strona główna</h1>")
	}
}

func TestUnknownPageOrLocale(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get("/en/careers").Code)
	assert.Equal(t, http.StatusNotFound, get("/fr/about").Code)
}
