package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type AreaHandler struct {
	Repo repository.AreaRepository
}

func (h AreaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/areas", h.list)
	r.Post("/areas", h.create)
	r.Get("/areas/{id}", h.get)
	r.Put("/areas/{id}", h.update)
	r.Delete("/areas/{id}", h.delete)
}

func (h AreaHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.Repo.List(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		a := &items[i]
		m := toAreaResponse(a)
		m["tableCount"] = a.TableCount
		m["occupiedCount"] = a.OccupiedCount
		m["availableCount"] = a.AvailableCount
		resp = append(resp, m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AreaHandler) get(w http.ResponseWriter, r *http.Request) {
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
	a, err := h.Repo.Get(r.Context(), user.HubID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAreaResponse(a))
}

type areaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

func (req areaRequest) toDomain(hubID, id int64) domain.Area {
	a := domain.Area{
		ID:          id,
		HubID:       hubID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	return a
}

func (h AreaHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	a, err := h.Repo.Create(r.Context(), req.toDomain(user.HubID, 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toAreaResponse(a))
}

func (h AreaHandler) update(w http.ResponseWriter, r *http.Request) {
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
	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.Repo.Update(r.Context(), req.toDomain(user.HubID, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAreaResponse(a))
}

func (h AreaHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func toAreaResponse(a *domain.Area) map[string]any {
	return map[string]any{
		"id":          a.ID,
		"name":        a.Name,
		"description": a.Description,
		"color":       a.Color,
		"icon":        a.Icon,
		"sortOrder":   a.SortOrder,
		"isActive":    a.IsActive,
	}
}
