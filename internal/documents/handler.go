package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/wolfman30/childcare-site/internal/http/middleware"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

const (
	portalPrefix    = "portal/"
	resourcesPrefix = "resources/"
	sniffLen        = 512
)

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/heic":      true,
}

// Handler serves portal uploads and the resource library.
type Handler struct {
	storage  Storage
	maxBytes int64
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a documents handler. maxBytes caps a single upload.
func NewHandler(storage Storage, maxBytes int64, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Handler{storage: storage, maxBytes: maxBytes, logger: logger, now: time.Now}
}

// Upload handles POST /api/portal/documents with a multipart "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	family, ok := familyID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field required"})
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file could not be read"})
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is empty"})
		return
	}

	contentType := detectType(data, header.Filename)
	if !allowedTypes[contentType] {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "only PDF, JPEG, PNG and HEIC files are accepted"})
		return
	}

	name := fmt.Sprintf("%d-%s", h.now().UTC().Unix(), safeName(header.Filename))
	key := portalPrefix + family + "/" + name
	if err := h.storage.Put(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		h.logger.Error("document upload failed", "error", err, "family", family)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}
	h.logger.Info("document uploaded", "family", family, "key", key, "bytes", len(data), "content_type", contentType)
	writeJSON(w, http.StatusCreated, Object{
		Key:          key,
		Name:         name,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: h.now().UTC(),
	})
}

// List handles GET /api/portal/documents for the signed-in family.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	family, ok := familyID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.list(w, r, portalPrefix+family+"/")
}

// Download handles GET /api/portal/documents/{name}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	family, ok := familyID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" || name != safeName(name) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	body, contentType, err := h.storage.Get(r.Context(), portalPrefix+family+"/"+name)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("document download failed", "error", err, "family", family)
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	io.Copy(w, body)
}

// Resources handles GET /api/admin/resources.
func (h *Handler) Resources(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, resourcesPrefix)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, prefix string) {
	objects, err := h.storage.List(r.Context(), prefix)
	if err != nil {
		h.logger.Error("document list failed", "error", err, "prefix", prefix)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list documents"})
		return
	}
	if objects == nil {
		objects = []Object{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": objects, "count": len(objects)})
}

func familyID(r *http.Request) (string, bool) {
	claims, ok := httpmiddleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	id := safeName(claims.Subject)
	return id, id != "" && id == claims.Subject
}

func detectType(data []byte, filename string) string {
	sniffed := http.DetectContentType(data[:min(len(data), sniffLen)])
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = sniffed[:i]
	}
	if sniffed == "application/octet-stream" {
		switch strings.ToLower(path.Ext(filename)) {
		case ".heic", ".heif":
			return "image/heic"
		}
	}
	return sniffed
}

// safeName keeps letters, digits, dot, dash and underscore.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
