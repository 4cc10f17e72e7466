package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/slotbook/internal/application/services"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// CategoryLister lists marketplace categories
type CategoryLister interface {
	ListCategories(ctx context.Context) (*entities.Page[entities.Category], error)
}

// DashboardService assembles a professional's dashboard
type DashboardService interface {
	Dashboard(ctx context.Context, professionalID string) (*services.Dashboard, error)
}

// CatalogHandler serves read-mostly marketplace data
type CatalogHandler struct {
	categories CategoryLister
	dashboard  DashboardService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(categories CategoryLister, dashboard DashboardService) *CatalogHandler {
	return &CatalogHandler{categories: categories, dashboard: dashboard}
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := h.categories.ListCategories(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if page.FromCache {
		w.Header().Set("X-From-Cache", "true")
		if page.CachedAt != nil {
			w.Header().Set("X-Cached-At", page.CachedAt.UTC().Format(time.RFC3339))
		}
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetDashboard handles GET /api/professionals/{id}/dashboard
func (h *CatalogHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboard.Dashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}
