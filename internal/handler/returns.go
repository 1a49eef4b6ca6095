package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/ERPlora/module-returns/internal/service"
	"github.com/go-chi/chi/v5"
)

type ReturnHandler struct {
	Repo    repository.ReturnRepository
	Service *service.ReturnService
}

func (h ReturnHandler) RegisterRoutes(r chi.Router) {
	r.Get("/returns", h.list)
	r.Get("/returns/dashboard", h.dashboard)
	r.Get("/returns/export", h.export)
	r.Post("/returns", h.create)
	r.Get("/returns/{id}", h.get)
	r.Put("/returns/{id}", h.update)
	r.Delete("/returns/{id}", h.delete)
	r.Post("/returns/{id}/approve", h.approve)
	r.Post("/returns/{id}/reject", h.reject)
	r.Post("/returns/{id}/complete", h.complete)
	r.Post("/returns/{id}/cancel", h.cancel)
	r.Post("/returns/{id}/items", h.addItem)
	r.Delete("/returns/{id}/items/{itemId}", h.removeItem)
}

func (h ReturnHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter, err := parseReturnFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Repo.List(r.Context(), user.HubID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, toReturnResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseReturnFilter(r *http.Request) (repository.ReturnFilter, error) {
	q := r.URL.Query()
	f := repository.ReturnFilter{
		Query:        q.Get("q"),
		Status:       domain.ReturnStatus(q.Get("status")),
		RefundMethod: domain.RefundMethod(q.Get("refundMethod")),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return f, errors.New("invalid limit")
		}
		f.Limit = n
	}
	start, err := parseDateQuery(r, "startDate")
	if err != nil {
		return f, errors.New("invalid startDate")
	}
	end, err := parseDateQuery(r, "endDate")
	if err != nil {
		return f, errors.New("invalid endDate")
	}
	f.StartDate = start
	f.EndDate = end
	return f, nil
}

func (h ReturnHandler) get(w http.ResponseWriter, r *http.Request) {
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
	ret, err := h.Repo.Get(r.Context(), user.HubID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnResponse(ret))
}

type returnItemRequest struct {
	SaleItemID   *int64 `json:"saleItemId"`
	ProductID    *int64 `json:"productId"`
	ProductName  string `json:"productName"`
	ProductSKU   string `json:"productSku"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"`
	TaxRateBps   int    `json:"taxRateBps"`
	RefundAmount int64  `json:"refundAmount"`
	Condition    string `json:"condition"`
	Restock      *bool  `json:"restock"`
	Notes        string `json:"notes"`
}

func (req returnItemRequest) toDomain() domain.ReturnItem {
	it := domain.ReturnItem{
		SaleItemID:   req.SaleItemID,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		ProductSKU:   req.ProductSKU,
		Quantity:     req.Quantity,
		UnitPrice:    domain.Money{Amount: req.UnitPrice},
		TaxRateBps:   req.TaxRateBps,
		RefundAmount: domain.Money{Amount: req.RefundAmount},
		Condition:    domain.ItemCondition(req.Condition),
		Restock:      true,
		Notes:        req.Notes,
	}
	if req.Restock != nil {
		it.Restock = *req.Restock
	}
	return it
}

func (h ReturnHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		OriginalSaleID *int64              `json:"originalSaleId"`
		SaleDate       *string             `json:"saleDate"`
		CustomerID     *int64              `json:"customerId"`
		CustomerName   string              `json:"customerName"`
		ReasonID       *int64              `json:"reasonId"`
		ReasonNotes    string              `json:"reasonNotes"`
		RefundMethod   string              `json:"refundMethod"`
		Notes          string              `json:"notes"`
		Items          []returnItemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var saleDate *time.Time
	if req.SaleDate != nil && *req.SaleDate != "" {
		parsed, err := time.Parse(dateLayout, *req.SaleDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid saleDate")
			return
		}
		saleDate = &parsed
	}
	items := make([]domain.ReturnItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, it.toDomain())
	}
	ret, err := h.Service.Create(r.Context(), user.HubID, user.Email, service.CreateReturnParams{
		OriginalSaleID: req.OriginalSaleID,
		SaleDate:       saleDate,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		EmployeeID:     &user.ID,
		ReasonID:       req.ReasonID,
		ReasonNotes:    req.ReasonNotes,
		RefundMethod:   domain.RefundMethod(req.RefundMethod),
		Notes:          req.Notes,
		Items:          items,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReturnResponse(ret))
}

func (h ReturnHandler) update(w http.ResponseWriter, r *http.Request) {
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
		OriginalSaleID *int64 `json:"originalSaleId"`
		CustomerID     *int64 `json:"customerId"`
		CustomerName   string `json:"customerName"`
		ReasonID       *int64 `json:"reasonId"`
		ReasonNotes    string `json:"reasonNotes"`
		RefundMethod   string `json:"refundMethod"`
		Notes          string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	current, err := h.Repo.Get(r.Context(), user.HubID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if current.Status != domain.ReturnPending {
		writeError(w, http.StatusConflict, "only pending returns can be edited")
		return
	}
	ret, err := h.Repo.Update(r.Context(), user.HubID, id, repository.UpdateReturnInput{
		OriginalSaleID: req.OriginalSaleID,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		ReasonID:       req.ReasonID,
		ReasonNotes:    req.ReasonNotes,
		RefundMethod:   domain.RefundMethod(req.RefundMethod),
		Notes:          req.Notes,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnResponse(ret))
}

func (h ReturnHandler) delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Repo.SoftDelete(r.Context(), user.HubID, id); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h ReturnHandler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(user *authctx.CurrentUser, id int64) (*domain.Return, error) {
		return h.Service.Approve(r.Context(), user.HubID, id, user.ID, user.Email)
	})
}

func (h ReturnHandler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(user *authctx.CurrentUser, id int64) (*domain.Return, error) {
		return h.Service.Reject(r.Context(), user.HubID, id, user.Email)
	})
}

func (h ReturnHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(user *authctx.CurrentUser, id int64) (*domain.Return, error) {
		return h.Service.Cancel(r.Context(), user.HubID, id, user.Email)
	})
}

func (h ReturnHandler) transition(w http.ResponseWriter, r *http.Request, fn func(*authctx.CurrentUser, int64) (*domain.Return, error)) {
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
	ret, err := fn(user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnResponse(ret))
}

func (h ReturnHandler) complete(w http.ResponseWriter, r *http.Request) {
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
	ret, credit, err := h.Service.Complete(r.Context(), user.HubID, id, user.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := map[string]any{"return": toReturnResponse(ret)}
	if credit != nil {
		resp["storeCredit"] = toCreditResponse(credit)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ReturnHandler) addItem(w http.ResponseWriter, r *http.Request) {
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
	var req returnItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	it := req.toDomain()
	it.HubID = user.HubID
	it.ReturnID = id
	it.Normalize()
	saved, err := h.Repo.AddItem(r.Context(), user.HubID, it)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReturnItemResponse(saved))
}

func (h ReturnHandler) removeItem(w http.ResponseWriter, r *http.Request) {
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
	itemID, err := parseIDParam(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if err := h.Repo.RemoveItem(r.Context(), user.HubID, id, itemID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h ReturnHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.Repo.Stats(r.Context(), user.HubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, err := h.Repo.List(r.Context(), user.HubID, repository.ReturnFilter{Limit: 5})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recentResp := make([]map[string]any, 0, len(recent))
	for i := range recent {
		recentResp = append(recentResp, toReturnResponse(&recent[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalReturns":     stats.TotalReturns,
		"pendingReturns":   stats.PendingReturns,
		"completedReturns": stats.CompletedReturns,
		"totalRefunded":    stats.TotalRefunded,
		"recent":           recentResp,
	})
}

func (h ReturnHandler) export(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	filter, err := parseReturnFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		writeError(w, http.StatusBadRequest, "startDate must be before endDate")
		return
	}
	filter.Limit = 2000
	items, err := h.Repo.List(r.Context(), user.HubID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filenameSuffix := time.Now().Format("20060102_150405")
	if filter.StartDate != nil && filter.EndDate != nil {
		filenameSuffix = fmt.Sprintf("%s_%s", filter.StartDate.Format("20060102"), filter.EndDate.Format("20060102"))
	}

	switch format {
	case "csv":
		data, err := exportReturnsCSV(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"returns_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportReturnsXLSX(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"returns_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func toReturnResponse(ret *domain.Return) map[string]any {
	resp := map[string]any{
		"id":             ret.ID,
		"number":         ret.Number,
		"originalSaleId": ret.OriginalSaleID,
		"customerId":     ret.CustomerID,
		"customerName":   ret.CustomerName,
		"employeeId":     ret.EmployeeID,
		"reasonId":       ret.ReasonID,
		"reasonNotes":    ret.ReasonNotes,
		"status":         ret.Status,
		"subtotal":       ret.Subtotal.Amount,
		"taxAmount":      ret.TaxAmount.Amount,
		"totalRefund":    ret.TotalRefund.Amount,
		"refundMethod":   ret.RefundMethod,
		"notes":          ret.Notes,
		"approvedBy":     ret.ApprovedBy,
		"approvedAt":     ret.ApprovedAt,
		"completedAt":    ret.CompletedAt,
		"createdAt":      ret.CreatedAt,
		"updatedAt":      ret.UpdatedAt,
	}
	if ret.Items != nil {
		items := make([]map[string]any, 0, len(ret.Items))
		for i := range ret.Items {
			items = append(items, toReturnItemResponse(&ret.Items[i]))
		}
		resp["items"] = items
	}
	return resp
}

func toReturnItemResponse(it *domain.ReturnItem) map[string]any {
	return map[string]any{
		"id":           it.ID,
		"returnId":     it.ReturnID,
		"saleItemId":   it.SaleItemID,
		"productId":    it.ProductID,
		"productName":  it.ProductName,
		"productSku":   it.ProductSKU,
		"quantity":     it.Quantity,
		"unitPrice":    it.UnitPrice.Amount,
		"taxRateBps":   it.TaxRateBps,
		"refundAmount": it.RefundAmount.Amount,
		"condition":    it.Condition,
		"restock":      it.Restock,
		"notes":        it.Notes,
	}
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrReturnsDisabled),
		errors.Is(err, service.ErrReturnWindowClosed),
		errors.Is(err, service.ErrReceiptRequired),
		errors.Is(err, service.ErrNoteRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
