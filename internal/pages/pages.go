// Package pages renders the localized HTML shell for the public site.
package pages

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

//go:embed templates/page.html
var templateFS embed.FS

var shell = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// page slugs in navigation order, with their title keys. The empty slug is
// the home page.
var order = []struct {
	slug, title string
}{
	{"", locale.PageHome},
	{"about", locale.PageAbout},
	{"programs", locale.PagePrograms},
	{"enrollment", locale.PageEnrollment},
	{"contact", locale.PageContact},
}

type link struct {
	Href, Label, Lang string
	Current           bool
}

type view struct {
	Lang, Title, SiteName, Page string
	Nav, Alternates             []link
}

// Handler serves GET /{locale} and /{locale}/{page}.
type Handler struct {
	siteName string
	logger   *logging.Logger
}

// NewHandler creates a pages handler.
func NewHandler(siteName string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{siteName: siteName, logger: logger}
}

// Routes mounts the page routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{locale}", h.Page)
	r.Get("/{locale}/", h.Page)
	r.Get("/{locale}/{page}", h.Page)
}

// Page renders one localized page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "locale")
	if !locale.IsSupported(lang) {
		http.NotFound(w, r)
		return
	}
	slug := chi.URLParam(r, "page")
	titleKey, ok := titleFor(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	v := view{
		Lang:     lang,
		Title:    locale.Message(lang, titleKey),
		SiteName: h.siteName,
		Page:     slug,
	}
	for _, p := range order {
		v.Nav = append(v.Nav, link{Href: href(lang, p.slug), Label: locale.Message(lang, p.title), Current: p.slug == slug})
	}
	for _, code := range locale.Supported() {
		v.Alternates = append(v.Alternates, link{Href: href(code, slug), Lang: code})
	}

	var buf bytes.Buffer
	if err := shell.Execute(&buf, v); err != nil {
		h.logger.Error("page render failed", "error", err, "page", slug, "locale", lang)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", lang)
	w.Write(buf.Bytes())
}

func titleFor(slug string) (string, bool) {
	for _, p := range order {
		if p.slug == slug {
			return p.title, true
		}
	}
	return "", false
}

func href(lang, slug string) string {
	if slug == "" {
		return "/" + lang + "/"
	}
	return "/" + lang + "/" + slug
}
