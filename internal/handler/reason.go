package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type ReasonHandler struct {
	Repo repository.ReasonRepository
}

// RegisterRoutes exposes the read side; staff need the reason list when
// creating a return.
func (h ReasonHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reasons", h.list)
}

func (h ReasonHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/reasons", h.create)
	r.Put("/reasons/{id}", h.update)
	r.Delete("/reasons/{id}", h.delete)
}

func (h ReasonHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	activeOnly := r.URL.Query().Get("all") == ""
	items, err := h.Repo.List(r.Context(), user.HubID, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, toReasonResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type reasonRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	RestocksInventory bool   `json:"restocksInventory"`
	RequiresNote      bool   `json:"requiresNote"`
	SortOrder         int    `json:"sortOrder"`
	IsActive          *bool  `json:"isActive"`
}

func (h ReasonHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	re := domain.ReturnReason{
		HubID:             user.HubID,
		Name:              req.Name,
		Description:       req.Description,
		RestocksInventory: req.RestocksInventory,
		RequiresNote:      req.RequiresNote,
		SortOrder:         req.SortOrder,
		IsActive:          true,
	}
	if req.IsActive != nil {
		re.IsActive = *req.IsActive
	}
	saved, err := h.Repo.Create(r.Context(), re)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "a reason with this name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toReasonResponse(saved))
}

func (h ReasonHandler) update(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	re := domain.ReturnReason{
		ID:                id,
		HubID:             user.HubID,
		Name:              req.Name,
		Description:       req.Description,
		RestocksInventory: req.RestocksInventory,
		RequiresNote:      req.RequiresNote,
		SortOrder:         req.SortOrder,
		IsActive:          true,
	}
	if req.IsActive != nil {
		re.IsActive = *req.IsActive
	}
	saved, err := h.Repo.Update(r.Context(), re)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReasonResponse(saved))
}

func (h ReasonHandler) delete(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), user.HubID, id); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toReasonResponse(re *domain.ReturnReason) map[string]any {
	return map[string]any{
		"id":                re.ID,
		"name":              re.Name,
		"description":       re.Description,
		"restocksInventory": re.RestocksInventory,
		"requiresNote":      re.RequiresNote,
		"sortOrder":         re.SortOrder,
		"isActive":          re.IsActive,
	}
}
