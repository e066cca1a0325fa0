package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mkravets/valvecalc-backend/internal/service/library"
)

// libraryService defines the minimal interface needed by LibraryHandler.
type libraryService interface {
	ListMine(ctx context.Context, entity string, limit int) ([]library.TypeListing, error)
}

// LibraryHandler serves the dashboard listing endpoint.
type LibraryHandler struct {
	svc libraryService
	log *slog.Logger
}

// NewLibraryHandler creates a LibraryHandler.
func NewLibraryHandler(svc libraryService, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{svc: svc, log: logger.With("handler", "library")}
}

type typeListingResponse struct {
	Type  string                `json:"type"`
	Label string                `json:"label"`
	Items []calcSummaryResponse `json:"items"`
}

// ListMine handles GET /api/v1/library?type=&limit=.
func (h *LibraryHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.ListMine(r.Context(), r.URL.Query().Get("type"), queryInt(r, "limit"))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]typeListingResponse, 0, len(listings))
	for _, l := range listings {
		items := make([]calcSummaryResponse, 0, len(l.Items))
		for _, item := range l.Items {
			items = append(items, calcSummaryResponse{
				ID:        item.ID.String(),
				Name:      item.Name,
				CreatedAt: item.CreatedAt,
				UpdatedAt: item.UpdatedAt,
			})
		}
		out = append(out, typeListingResponse{
			Type:  l.Type.Entity,
			Label: l.Type.DefaultName,
			Items: items,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
