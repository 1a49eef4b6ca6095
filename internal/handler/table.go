package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type TableHandler struct {
	Repo     repository.TableRepository
	Areas    repository.AreaRepository
	Settings repository.TablesSettingsRepository
	Logs     repository.ActivityLogRepository
}

func (h TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.list)
	r.Get("/tables/status", h.status)
	r.Post("/tables", h.create)
	r.Get("/tables/{id}", h.get)
	r.Put("/tables/{id}", h.update)
	r.Delete("/tables/{id}", h.delete)
	r.Post("/tables/{id}/open", h.open)
	r.Post("/tables/{id}/close", h.close)
	r.Post("/tables/{id}/transfer", h.transfer)
	r.Post("/tables/{id}/reserve", h.reserve)
	r.Post("/tables/{id}/cancel-reservation", h.cancelReservation)
	r.Post("/tables/{id}/block", h.block)
	r.Post("/tables/{id}/unblock", h.unblock)
	r.Post("/tables/{id}/link-sale", h.linkSale)
}

func (h TableHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	filter := repository.TableFilter{Status: domain.TableStatus(q.Get("status"))}
	if aid := q.Get("areaId"); aid != "" {
		id, err := strconv.ParseInt(aid, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid areaId")
			return
		}
		filter.AreaID = &id
	}
	items, err := h.Repo.List(r.Context(), user.HubID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	now := time.Now()
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, toTableResponse(&items[i], now))
	}
	writeJSON(w, http.StatusOK, resp)
}

// status feeds the floor view's polling loop with per-table sessions plus
// aggregate counts in a single round trip.
func (h TableHandler) status(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.Repo.Status(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	items, err := h.Repo.List(r.Context(), user.HubID, repository.TableFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	areas, err := h.Areas.List(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	areaCounts := make([]map[string]any, 0, len(areas))
	for i := range areas {
		a := &areas[i]
		areaCounts = append(areaCounts, map[string]any{
			"id":             a.ID,
			"name":           a.Name,
			"tableCount":     a.TableCount,
			"occupiedCount":  a.OccupiedCount,
			"availableCount": a.AvailableCount,
		})
	}
	now := time.Now()
	tables := make([]map[string]any, 0, len(items))
	for i := range items {
		t := &items[i]
		tables = append(tables, map[string]any{
			"id":             t.ID,
			"number":         t.Number,
			"status":         t.Status,
			"guests":         t.Guests,
			"currentSaleId":  t.CurrentSaleID,
			"elapsedMinutes": t.ElapsedMinutes(now),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalTables":    summary.TotalTables,
		"availableCount": summary.AvailableCount,
		"occupiedCount":  summary.OccupiedCount,
		"reservedCount":  summary.ReservedCount,
		"blockedCount":   summary.BlockedCount,
		"areas":          areaCounts,
		"tables":         tables,
		"timestamp":      now,
	})
}

func (h TableHandler) get(w http.ResponseWriter, r *http.Request) {
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
	t, err := h.Repo.Get(r.Context(), user.HubID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(t, time.Now()))
}

type tableRequest struct {
	AreaID      *int64 `json:"areaId"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	MinCapacity int    `json:"minCapacity"`
	PosX        int    `json:"posX"`
	PosY        int    `json:"posY"`
	IsActive    *bool  `json:"isActive"`
}

func (h TableHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Number == "" {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}
	if req.Capacity == 0 {
		settings, err := h.Settings.Get(r.Context(), user.HubID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		req.Capacity = settings.DefaultTableCapacity
	}
	in := repository.SaveTableInput{
		AreaID:      req.AreaID,
		Number:      req.Number,
		Name:        req.Name,
		Capacity:    req.Capacity,
		MinCapacity: req.MinCapacity,
		PosX:        req.PosX,
		PosY:        req.PosY,
		IsActive:    true,
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	t, err := h.Repo.Create(r.Context(), user.HubID, in)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "a table with this number already exists in the area")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toTableResponse(t, time.Now()))
}

func (h TableHandler) update(w http.ResponseWriter, r *http.Request) {
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
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in := repository.SaveTableInput{
		AreaID:      req.AreaID,
		Number:      req.Number,
		Name:        req.Name,
		Capacity:    req.Capacity,
		MinCapacity: req.MinCapacity,
		PosX:        req.PosX,
		PosY:        req.PosY,
		IsActive:    true,
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	t, err := h.Repo.Update(r.Context(), user.HubID, id, in)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "a table with this number already exists in the area")
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(t, time.Now()))
}

func (h TableHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (h TableHandler) open(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Guests int    `json:"guests"`
		Waiter string `json:"waiter"`
		SaleID *int64 `json:"saleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Guests < 1 {
		req.Guests = 1
	}
	if req.Waiter == "" {
		req.Waiter = user.Email
	}
	t, err := h.Repo.Mutate(r.Context(), user.HubID, id, func(t *domain.Table) error {
		return t.Open(req.Guests, req.Waiter, req.SaleID, time.Now())
	})
	if err != nil {
		writeTableError(w, err)
		return
	}
	h.logTableActivity(r, user, "Table opened", "Table "+t.Number+" opened")
	writeJSON(w, http.StatusOK, toTableResponse(t, time.Now()))
}

func (h TableHandler) close(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Table closed", func(t *domain.Table) error {
		return t.Close()
	})
}

func (h TableHandler) reserve(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Table reserved", func(t *domain.Table) error {
		return t.Reserve()
	})
}

func (h TableHandler) cancelReservation(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Reservation cancelled", func(t *domain.Table) error {
		return t.CancelReservation()
	})
}

func (h TableHandler) block(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Table blocked", func(t *domain.Table) error {
		return t.Block()
	})
}

func (h TableHandler) unblock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Table unblocked", func(t *domain.Table) error {
		return t.Unblock()
	})
}

func (h TableHandler) linkSale(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		SaleID int64 `json:"saleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SaleID == 0 {
		writeError(w, http.StatusBadRequest, "saleId is required")
		return
	}
	t, err := h.Repo.Mutate(r.Context(), user.HubID, id, func(t *domain.Table) error {
		t.LinkSale(req.SaleID, time.Now())
		return nil
	})
	if err != nil {
		writeTableError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(t, time.Now()))
}

func (h TableHandler) transfer(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		TargetID int64 `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == 0 {
		writeError(w, http.StatusBadRequest, "targetId is required")
		return
	}
	if req.TargetID == id {
		writeError(w, http.StatusBadRequest, "cannot transfer a table to itself")
		return
	}
	source, target, err := h.Repo.Transfer(r.Context(), user.HubID, id, req.TargetID, func(source, target *domain.Table) error {
		return source.TransferTo(target, time.Now())
	})
	if err != nil {
		writeTableError(w, err)
		return
	}
	h.logTableActivity(r, user, "Table transferred", "Session moved from table "+source.Number+" to "+target.Number)
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"source": toTableResponse(source, now),
		"target": toTableResponse(target, now),
	})
}

func (h TableHandler) mutate(w http.ResponseWriter, r *http.Request, title string, fn func(*domain.Table) error) {
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
	t, err := h.Repo.Mutate(r.Context(), user.HubID, id, fn)
	if err != nil {
		writeTableError(w, err)
		return
	}
	h.logTableActivity(r, user, title, title+": table "+t.Number)
	writeJSON(w, http.StatusOK, toTableResponse(t, time.Now()))
}

func (h TableHandler) logTableActivity(r *http.Request, user *authctx.CurrentUser, title, message string) {
	_, _ = h.Logs.Create(r.Context(), user.HubID, repository.CreateActivityLogInput{
		Title:   title,
		Message: message,
		Actor:   user.Email,
	})
}

func writeTableError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrTableNotAvailable),
		errors.Is(err, domain.ErrNoActiveSale):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toTableResponse(t *domain.Table, now time.Time) map[string]any {
	return map[string]any{
		"id":             t.ID,
		"areaId":         t.AreaID,
		"areaName":       t.AreaName,
		"number":         t.Number,
		"name":           t.Name,
		"capacity":       t.Capacity,
		"minCapacity":    t.MinCapacity,
		"status":         t.Status,
		"guests":         t.Guests,
		"waiter":         t.Waiter,
		"openedAt":       t.OpenedAt,
		"currentSaleId":  t.CurrentSaleID,
		"posX":           t.PosX,
		"posY":           t.PosY,
		"isActive":       t.IsActive,
		"elapsedMinutes": t.ElapsedMinutes(now),
		"elapsed":        t.ElapsedDisplay(now),
	}
}
