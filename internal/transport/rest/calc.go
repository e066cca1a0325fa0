package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/internal/service/calc"
)

// calcService defines the minimal interface needed by CalcHandler.
type calcService interface {
	Create(ctx context.Context, input calc.CreateInput) (uuid.UUID, error)
	Get(ctx context.Context, input calc.GetInput) (*domain.CalcRecord, error)
	List(ctx context.Context, input calc.ListInput) ([]domain.CalcSummary, error)
	Update(ctx context.Context, input calc.UpdateInput) (bool, error)
	Delete(ctx context.Context, input calc.DeleteInput) (bool, error)
}

// CalcHandler serves the per-type calculation CRUD endpoints.
type CalcHandler struct {
	svc calcService
	log *slog.Logger
}

// NewCalcHandler creates a CalcHandler.
func NewCalcHandler(svc calcService, logger *slog.Logger) *CalcHandler {
	return &CalcHandler{svc: svc, log: logger.With("handler", "calc")}
}

type createCalcRequest struct {
	Name     string         `json:"name"`
	Payload  map[string]any `json:"payload"`
	DesignID *uuid.UUID     `json:"designId,omitempty"`
}

type updateCalcRequest struct {
	Name     *string        `json:"name,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	DesignID *uuid.UUID     `json:"designId,omitempty"`
}

type calcSummaryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type calcRecordResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload"`
	DesignID  *string        `json:"designId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type idResponse struct {
	ID string `json:"id"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}

// Create handles POST /api/v1/calcs/{type}.
func (h *CalcHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCalcRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.svc.Create(r.Context(), calc.CreateInput{
		Entity:   r.PathValue("type"),
		Name:     req.Name,
		Payload:  req.Payload,
		DesignID: req.DesignID,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id.String()})
}

// Get handles GET /api/v1/calcs/{type}/{id}.
func (h *CalcHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.Get(r.Context(), calc.GetInput{
		Entity: r.PathValue("type"),
		ID:     id,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalcRecordResponse(rec))
}

// List handles GET /api/v1/calcs/{type}.
func (h *CalcHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), calc.ListInput{
		Entity: r.PathValue("type"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]calcSummaryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, calcSummaryResponse{
			ID:        item.ID.String(),
			Name:      item.Name,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Update handles PATCH /api/v1/calcs/{type}/{id}.
func (h *CalcHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateCalcRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.svc.Update(r.Context(), calc.UpdateInput{
		Entity:   r.PathValue("type"),
		ID:       id,
		Name:     req.Name,
		Payload:  req.Payload,
		DesignID: req.DesignID,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updatedResponse{Updated: updated})
}

// Delete handles DELETE /api/v1/calcs/{type}/{id}.
func (h *CalcHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(r.Context(), calc.DeleteInput{
		Entity: r.PathValue("type"),
		ID:     id,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toCalcRecordResponse(rec *domain.CalcRecord) calcRecordResponse {
	out := calcRecordResponse{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Payload:   rec.Payload,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.DesignID != nil {
		s := rec.DesignID.String()
		out.DesignID = &s
	}
	return out
}

// pathID parses the {id} path segment. A malformed id is a 404: it can
// never name an existing record.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
