package handler

import (
	"net/http"

	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	Returns repository.ReturnRepository
	Tables  repository.TableRepository
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.summary)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.Returns.Stats(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	floor, err := h.Tables.Status(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalReturns":     stats.TotalReturns,
		"pendingReturns":   stats.PendingReturns,
		"completedReturns": stats.CompletedReturns,
		"totalRefunded":    stats.TotalRefunded,
		"totalTables":      floor.TotalTables,
		"occupiedTables":   floor.OccupiedCount,
		"availableTables":  floor.AvailableCount,
	})
}
