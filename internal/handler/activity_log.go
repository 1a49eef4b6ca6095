package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type ActivityLogHandler struct {
	Repo repository.ActivityLogRepository
}

func (h ActivityLogHandler) RegisterRoutes(r chi.Router) {
	r.Post("/logs", h.create)
	r.Get("/logs", h.list)
}

func (h ActivityLogHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	id, err := h.Repo.Create(r.Context(), user.HubID, repository.CreateActivityLogInput{
		Title:   req.Title,
		Message: req.Message,
		Actor:   user.Email,
		Type:    domain.ActivityLogType(req.Type),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h ActivityLogHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	items, err := h.Repo.List(r.Context(), user.HubID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, l := range items {
		resp = append(resp, map[string]any{
			"id":       l.ID,
			"title":    l.Title,
			"message":  l.Message,
			"actor":    l.Actor,
			"type":     l.Type,
			"loggedAt": l.LoggedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
