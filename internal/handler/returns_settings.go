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

type ReturnsSettingsHandler struct {
	Repo repository.ReturnsSettingsRepository
}

func (h ReturnsSettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/returns-settings", h.get)
	r.Put("/returns-settings", h.save)
	r.Post("/returns-settings/toggle", h.toggle)
}

func (h ReturnsSettingsHandler) get(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, toReturnsSettingsResponse(s))
}

func (h ReturnsSettingsHandler) save(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		AllowReturns     *bool `json:"allowReturns"`
		ReturnWindowDays *int  `json:"returnWindowDays"`
		AllowStoreCredit *bool `json:"allowStoreCredit"`
		RequireReceipt   *bool `json:"requireReceipt"`
		AutoRestoreStock *bool `json:"autoRestoreStock"`
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
	if req.AllowReturns != nil {
		current.AllowReturns = *req.AllowReturns
	}
	if req.ReturnWindowDays != nil {
		if *req.ReturnWindowDays < 0 {
			writeError(w, http.StatusBadRequest, "returnWindowDays must not be negative")
			return
		}
		current.ReturnWindowDays = *req.ReturnWindowDays
	}
	if req.AllowStoreCredit != nil {
		current.AllowStoreCredit = *req.AllowStoreCredit
	}
	if req.RequireReceipt != nil {
		current.RequireReceipt = *req.RequireReceipt
	}
	if req.AutoRestoreStock != nil {
		current.AutoRestoreStock = *req.AutoRestoreStock
	}
	s, err := h.Repo.Save(r.Context(), *current)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toReturnsSettingsResponse(s))
}

// toggle flips or sets a single field by name. Boolean settings flip when
// the value is omitted; returnWindowDays takes a numeric value.
func (h ReturnsSettingsHandler) toggle(w http.ResponseWriter, r *http.Request) {
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
	if err := applyReturnsSetting(current, req.Name, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.Repo.Save(r.Context(), *current)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toReturnsSettingsResponse(s))
}

func applyReturnsSetting(s *domain.ReturnsSettings, name string, value json.RawMessage) error {
	if name == "returnWindowDays" {
		var days int
		if len(value) == 0 || json.Unmarshal(value, &days) != nil || days < 0 {
			return errors.New("returnWindowDays must be a non-negative number")
		}
		s.ReturnWindowDays = days
		return nil
	}
	fields := map[string]*bool{
		"allowReturns":     &s.AllowReturns,
		"allowStoreCredit": &s.AllowStoreCredit,
		"requireReceipt":   &s.RequireReceipt,
		"autoRestoreStock": &s.AutoRestoreStock,
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

func toReturnsSettingsResponse(s *domain.ReturnsSettings) map[string]any {
	return map[string]any{
		"allowReturns":     s.AllowReturns,
		"returnWindowDays": s.ReturnWindowDays,
		"allowStoreCredit": s.AllowStoreCredit,
		"requireReceipt":   s.RequireReceipt,
		"autoRestoreStock": s.AutoRestoreStock,
		"updatedAt":        s.UpdatedAt,
	}
}
