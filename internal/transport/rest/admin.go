package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/internal/service/library"
)

// adminLibraryService defines the minimal interface needed by AdminHandler.
type adminLibraryService interface {
	AdminList(ctx context.Context, input library.AdminListInput) ([]library.AdminRow, error)
	AdminGet(ctx context.Context, input library.AdminGetInput) (*library.AdminRecord, error)
	AdminDelete(ctx context.Context, input library.AdminGetInput) (bool, error)
	AuditTrail(ctx context.Context, input library.AuditTrailInput) ([]domain.AuditRecord, error)
}

// AdminHandler serves the cross-user admin endpoints.
type AdminHandler struct {
	svc adminLibraryService
	log *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc adminLibraryService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: logger.With("handler", "admin")}
}

type adminRowResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"ownerId"`
	OwnerUsername string    `json:"ownerUsername,omitempty"`
	DesignID      *string   `json:"designId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type adminRecordResponse struct {
	calcRecordResponse
	OwnerID       string `json:"ownerId"`
	OwnerUsername string `json:"ownerUsername,omitempty"`
}

type auditRecordResponse struct {
	ID            string         `json:"id"`
	ActorID       string         `json:"actorId"`
	ActorUsername string         `json:"actorUsername"`
	ActorRole     string         `json:"actorRole"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entityType"`
	EntityID      *string        `json:"entityId,omitempty"`
	EntityName    *string        `json:"entityName,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	IPAddr        string         `json:"ipAddr,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// List handles GET /api/v1/admin/calcs/{type}.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := library.AdminListInput{
		Entity:       r.PathValue("type"),
		NameLike:     q.Get("name_like"),
		UsernameLike: q.Get("username_like"),
		Limit:        queryInt(r, "limit"),
	}
	if raw := q.Get("design_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid design_id")
			return
		}
		input.DesignID = &id
	}

	rows, err := h.svc.AdminList(r.Context(), input)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]adminRowResponse, 0, len(rows))
	for _, row := range rows {
		resp := adminRowResponse{
			ID:            row.ID.String(),
			Name:          row.Name,
			OwnerID:       row.OwnerID.String(),
			OwnerUsername: row.OwnerUsername,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		}
		if row.DesignID != nil {
			s := row.DesignID.String()
			resp.DesignID = &s
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/admin/calcs/{type}/{id}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.AdminGet(r.Context(), library.AdminGetInput{
		Entity: r.PathValue("type"),
		ID:     id,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adminRecordResponse{
		calcRecordResponse: toCalcRecordResponse(rec.Record),
		OwnerID:            rec.Record.OwnerID.String(),
		OwnerUsername:      rec.OwnerUsername,
	})
}

// Delete handles DELETE /api/v1/admin/calcs/{type}/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.AdminDelete(r.Context(), library.AdminGetInput{
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

// AuditTrail handles GET /api/v1/admin/audit.
// Query: entity_type+entity_id, or actor_id; limit, offset.
func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := library.AuditTrailInput{
		EntityType: q.Get("entity_type"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}
	if raw := q.Get("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entity_id")
			return
		}
		input.EntityID = &id
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid actor_id")
			return
		}
		input.ActorID = &id
	}

	recs, err := h.svc.AuditTrail(r.Context(), input)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]auditRecordResponse, 0, len(recs))
	for _, rec := range recs {
		resp := auditRecordResponse{
			ID:            rec.ID.String(),
			ActorID:       rec.Actor.ID.String(),
			ActorUsername: rec.Actor.Username,
			ActorRole:     rec.Actor.Role,
			Action:        string(rec.Action),
			EntityName:    rec.EntityName,
			EntityType:    rec.EntityType,
			Details:       rec.Details,
			IPAddr:        rec.IPAddr,
			CreatedAt:     rec.CreatedAt,
		}
		if rec.EntityID != nil {
			s := rec.EntityID.String()
			resp.EntityID = &s
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
