package referrals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

// Handler handles HTTP requests for referrals
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new referrals handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /api/admin/referrals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReferralRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ref, err := h.repo.Create(r.Context(), &req)
	switch {
	case errors.Is(err, ErrDuplicateCode):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrInvalidReferrer), errors.Is(err, ErrMissingFamily),
		errors.Is(err, ErrInvalidReferredEmail), errors.Is(err, ErrInvalidCode):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to create referral", "error", err)
		http.Error(w, "failed to create referral", http.StatusInternalServerError)
		return
	}

	h.logger.Info("referral created", "id", ref.ID, "code", ref.Code)
	writeJSON(w, http.StatusCreated, ref)
}

// ListReferralsResponse is the response for listing referrals
type ListReferralsResponse struct {
	Referrals []*Referral `json:"referrals"`
	Count     int         `json:"count"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
}

// List handles GET /api/admin/referrals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	refs, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list referrals", "error", err)
		http.Error(w, "failed to list referrals", http.StatusInternalServerError)
		return
	}
	if refs == nil {
		refs = []*Referral{}
	}
	writeJSON(w, http.StatusOK, ListReferralsResponse{
		Referrals: refs,
		Count:     len(refs),
		Offset:    offset,
		Limit:     limit,
	})
}

// Get handles GET /api/admin/referrals/{code}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	ref, err := h.repo.GetByCode(r.Context(), code)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "referral not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get referral", "error", err, "code", code)
		http.Error(w, "failed to get referral", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
