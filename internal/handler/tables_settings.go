package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type TablesSettingsHandler struct {
	Repo repository.TablesSettingsRepository
}

func (h TablesSettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables-settings", h.get)
	r.Put("/tables-settings", h.save)
	r.Post("/tables-settings/toggle", h.toggle)
}

func (h TablesSettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s, err := h.Repo.Get(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTablesSettingsResponse(s))
}

func (h TablesSettingsHandler) save(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		ShowTableTimer       *bool `json:"showTableTimer"`
		ShowTableTotal       *bool `json:"showTableTotal"`
		DefaultTableCapacity *int  `json:"defaultTableCapacity"`
		AutoCloseOnPayment   *bool `json:"autoCloseOnPayment"`
		RequireTableForOrder *bool `json:"requireTableForOrder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	current, err := h.Repo.Get(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.ShowTableTimer != nil {
		current.ShowTableTimer = *req.ShowTableTimer
	}
	if req.ShowTableTotal != nil {
		current.ShowTableTotal = *req.ShowTableTotal
	}
	if req.DefaultTableCapacity != nil {
		if *req.DefaultTableCapacity < 1 {
			writeError(w, http.StatusBadRequest, "defaultTableCapacity must be at least 1")
			return
		}
		current.DefaultTableCapacity = *req.DefaultTableCapacity
	}
	if req.AutoCloseOnPayment != nil {
		current.AutoCloseOnPayment = *req.AutoCloseOnPayment
	}
	if req.RequireTableForOrder != nil {
		current.RequireTableForOrder = *req.RequireTableForOrder
	}
	s, err := h.Repo.Save(r.Context(), *current)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTablesSettingsResponse(s))
}

// toggle flips or sets a single field by name. Boolean settings flip when
// the value is omitted; defaultTableCapacity takes a numeric value.
func (h TablesSettingsHandler) toggle(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	current, err := h.Repo.Get(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := applyTablesSetting(current, req.Name, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.Repo.Save(r.Context(), *current)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTablesSettingsResponse(s))
}

func applyTablesSetting(s *domain.TablesSettings, name string, value json.RawMessage) error {
	if name == "defaultTableCapacity" {
		var capacity int
		if len(value) == 0 || json.Unmarshal(value, &capacity) != nil || capacity < 1 {
			return errors.New("defaultTableCapacity must be at least 1")
		}
		s.DefaultTableCapacity = capacity
		return nil
	}
	fields := map[string]*bool{
		"showTableTimer":       &s.ShowTableTimer,
		"showTableTotal":       &s.ShowTableTotal,
		"autoCloseOnPayment":   &s.AutoCloseOnPayment,
		"requireTableForOrder": &s.RequireTableForOrder,
	}
	field, ok := fields[name]
	if !ok {
		return errors.New("unknown setting: " + name)
	}
	if len(value) == 0 || string(value) == "null" {
		*field = !*field
		return nil
	}
	var b bool
	if err := json.Unmarshal(value, &b); err != nil {
		return errors.New(name + " must be a boolean")
	}
	*field = b
	return nil
}

func toTablesSettingsResponse(s *domain.TablesSettings) map[string]any {
	return map[string]any{
		"showTableTimer":       s.ShowTableTimer,
		"showTableTotal":       s.ShowTableTotal,
		"defaultTableCapacity": s.DefaultTableCapacity,
		"autoCloseOnPayment":   s.AutoCloseOnPayment,
		"requireTableForOrder": s.RequireTableForOrder,
		"updatedAt":            s.UpdatedAt,
	}
}
