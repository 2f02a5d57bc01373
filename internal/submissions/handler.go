package submissions

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/ratelimit"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Handler exposes the form pipeline and the admin read side over HTTP.
type Handler struct {
	service  *Service
	reader   Reader
	resolver *locale.Resolver
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a submissions handler. reader may be nil when the admin
// routes are not mounted.
func NewHandler(service *Service, reader Reader, resolver *locale.Resolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if resolver == nil {
		resolver = locale.NewResolver(locale.English)
	}
	return &Handler{
		service:  service,
		reader:   reader,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Contact handles POST /api/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindContact)
}

// Enrollment handles POST /api/enrollment.
func (h *Handler) Enrollment(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindEnrollment)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind Kind) {
	lang := h.requestLocale(r)

	raw, err := readPayload(w, r)
	if err != nil {
		h.logger.Warn("form body rejected", "kind", kind, "error", err)
		writeJSON(w, http.StatusBadRequest, validationFailure(lang, FieldErrors{"form": {"request body could not be read"}}))
		return
	}

	meta := RequestMeta{
		IP:             clientIP(r),
		UserAgent:      r.UserAgent(),
		Locale:         lang,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	}

	res := h.service.Handle(r.Context(), kind, raw, meta)

	switch res.Outcome {
	case OutcomeSucceeded:
		writeJSON(w, http.StatusCreated, res)
	case OutcomeRejectedValidation:
		writeJSON(w, http.StatusBadRequest, res)
	case OutcomeRejectedRateLimited:
		ratelimit.SetHeaders(w, ratelimit.Decision{Allowed: false, ResetAt: *res.ResetAt}, h.now())
		writeJSON(w, http.StatusTooManyRequests, res)
	default:
		writeJSON(w, http.StatusInternalServerError, res)
	}
}

func (h *Handler) requestLocale(r *http.Request) string {
	if q := r.URL.Query().Get("locale"); locale.IsSupported(q) {
		return q
	}
	if pref, ok := locale.FromContext(r.Context()); ok {
		return pref.Code
	}
	return h.resolver.Resolve(r).Code
}

// readPayload returns the body as a JSON document. Urlencoded and multipart
// forms are folded into an object of their first values.
func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return nil, err
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		return json.Marshal(fields)
	default:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			return nil, errors.New("empty body")
		}
		return raw, nil
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// ListSubmissionsResponse is the response for listing submissions.
type ListSubmissionsResponse struct {
	Submissions []*Submission `json:"submissions"`
	Count       int           `json:"count"`
	Offset      int           `json:"offset"`
	Limit       int           `json:"limit"`
}

// List handles GET /api/admin/submissions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	q := r.URL.Query()
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if kind := Kind(q.Get("kind")); kind != "" {
		if !kind.Valid() {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}
		filter.Kind = kind
	}
	filter.Status = Status(q.Get("status"))

	subs, err := h.reader.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list submissions", "error", err)
		http.Error(w, "failed to list submissions", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []*Submission{}
	}
	writeJSON(w, http.StatusOK, ListSubmissionsResponse{
		Submissions: subs,
		Count:       len(subs),
		Offset:      filter.Offset,
		Limit:       filter.Limit,
	})
}

// Get handles GET /api/admin/submissions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "submission not found", http.StatusNotFound)
		return
	}
	sub, err := h.reader.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "submission not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get submission", "error", err, "submission_id", id)
		http.Error(w, "failed to get submission", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
