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

type CreditHandler struct {
	Repo repository.CreditRepository
}

func (h CreditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/credits", h.list)
	r.Get("/credits/lookup", h.lookup)
	r.Post("/credits", h.create)
	r.Get("/credits/{id}", h.get)
	r.Post("/credits/{id}/deduct", h.deduct)
}

// RegisterAdminRoutes holds the balance-restoring side; only managers may top
// a credit back up.
func (h CreditHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/credits/{id}/add", h.add)
}

func (h CreditHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Lazy expiry keeps the list accurate without a background job.
	if err := h.Repo.ExpireStale(r.Context(), user.HubID, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	filter, err := parseCreditFilter(r)
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
		resp = append(resp, toCreditResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseCreditFilter reads the list filters. The active flag accepts both
// forms clients send, "1" and "true".
func parseCreditFilter(r *http.Request) (repository.CreditFilter, error) {
	q := r.URL.Query()
	f := repository.CreditFilter{Query: q.Get("q")}
	switch q.Get("active") {
	case "1", "true":
		f.ActiveOnly = true
	}
	if cid := q.Get("customerId"); cid != "" {
		id, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			return f, errors.New("invalid customerId")
		}
		f.CustomerID = &id
	}
	return f, nil
}

// lookup resolves a credit by its printed code, for redemption at the register.
func (h CreditHandler) lookup(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	c, err := h.Repo.GetByCode(r.Context(), user.HubID, code)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	resp := toCreditResponse(c)
	resp["valid"] = c.IsValid(time.Now())
	writeJSON(w, http.StatusOK, resp)
}

func (h CreditHandler) get(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.Repo.Get(r.Context(), user.HubID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCreditResponse(c))
}

func (h CreditHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		CustomerID    *int64  `json:"customerId"`
		CustomerName  string  `json:"customerName"`
		CustomerEmail string  `json:"customerEmail"`
		CustomerPhone string  `json:"customerPhone"`
		Amount        int64   `json:"amount"`
		ExpiresAt     *string `json:"expiresAt"`
		Notes         string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, err := time.Parse(dateLayout, *req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expiresAt")
			return
		}
		expiresAt = &parsed
	}
	c, err := h.Repo.Create(r.Context(), domain.StoreCredit{
		HubID:          user.HubID,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		OriginalAmount: domain.Money{Amount: req.Amount},
		CurrentAmount:  domain.Money{Amount: req.Amount},
		ExpiresAt:      expiresAt,
		IsActive:       true,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toCreditResponse(c))
}

func (h CreditHandler) deduct(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, func(c *domain.StoreCredit, amount int64) error {
		if !c.IsValid(time.Now()) {
			return errors.New("credit is not redeemable")
		}
		return c.Deduct(amount)
	})
}

func (h CreditHandler) add(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, func(c *domain.StoreCredit, amount int64) error {
		c.Add(amount)
		return nil
	})
}

func (h CreditHandler) adjust(w http.ResponseWriter, r *http.Request, fn func(*domain.StoreCredit, int64) error) {
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
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	c, err := h.Repo.Adjust(r.Context(), user.HubID, id, func(c *domain.StoreCredit) error {
		return fn(c, req.Amount)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredit) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCreditResponse(c))
}

func toCreditResponse(c *domain.StoreCredit) map[string]any {
	return map[string]any{
		"id":             c.ID,
		"code":           c.Code,
		"customerId":     c.CustomerID,
		"customerName":   c.CustomerName,
		"customerEmail":  c.CustomerEmail,
		"customerPhone":  c.CustomerPhone,
		"originalAmount": c.OriginalAmount.Amount,
		"currentAmount":  c.CurrentAmount.Amount,
		"returnId":       c.ReturnID,
		"expiresAt":      c.ExpiresAt,
		"isActive":       c.IsActive,
		"notes":          c.Notes,
		"createdAt":      c.CreatedAt,
	}
}
