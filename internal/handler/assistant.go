package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/ports"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// assistantTool is one entry in the typed RPC registry the assistant calls
// instead of raw HTTP endpoints.
type assistantTool struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	Module               string         `json:"module"`
	Params               map[string]any `json:"params"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
	MinRole              domain.UserRole
	Run                  func(ctx context.Context, user *authctx.CurrentUser, args json.RawMessage) (any, error)
}

type AssistantHandler struct {
	Returns ports.ReturnStore
	Reasons ports.ReasonStore
	Credits ports.CreditStore
}

func (h AssistantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/assistant/tools", h.list)
	r.Post("/assistant/tools/{name}", h.invoke)
}

func (h AssistantHandler) tools() []assistantTool {
	return []assistantTool{
		{
			Name:        "list_returns",
			Description: "List returns, optionally filtered by status.",
			Module:      "returns",
			Params: map[string]any{
				"status": "optional return status (pending, approved, rejected, completed, cancelled)",
				"limit":  "optional result cap, default 20",
			},
			MinRole: domain.RoleStaff,
			Run: func(ctx context.Context, user *authctx.CurrentUser, args json.RawMessage) (any, error) {
				var in struct {
					Status string `json:"status"`
					Limit  int    `json:"limit"`
				}
				if len(args) > 0 {
					if err := json.Unmarshal(args, &in); err != nil {
						return nil, err
					}
				}
				if in.Limit <= 0 {
					in.Limit = 20
				}
				items, err := h.Returns.List(ctx, user.HubID, repository.ReturnFilter{
					Status: domain.ReturnStatus(in.Status),
					Limit:  in.Limit,
				})
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(items))
				for i := range items {
					out = append(out, toReturnResponse(&items[i]))
				}
				return out, nil
			},
		},
		{
			Name:        "list_return_reasons",
			Description: "List the active return reasons.",
			Module:      "returns",
			Params:      map[string]any{},
			MinRole:     domain.RoleStaff,
			Run: func(ctx context.Context, user *authctx.CurrentUser, args json.RawMessage) (any, error) {
				items, err := h.Reasons.List(ctx, user.HubID, true)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(items))
				for i := range items {
					out = append(out, toReasonResponse(&items[i]))
				}
				return out, nil
			},
		},
		{
			Name:        "create_return_reason",
			Description: "Create a new return reason.",
			Module:      "returns",
			Params: map[string]any{
				"name":              "reason name (required)",
				"description":       "optional description",
				"restocksInventory": "whether returns with this reason restock, default true",
				"requiresNote":      "whether a note is mandatory, default false",
			},
			RequiresConfirmation: true,
			MinRole:              domain.RoleManager,
			Run: func(ctx context.Context, user *authctx.CurrentUser, args json.RawMessage) (any, error) {
				var in struct {
					Name              string `json:"name"`
					Description       string `json:"description"`
					RestocksInventory *bool  `json:"restocksInventory"`
					RequiresNote      bool   `json:"requiresNote"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				if in.Name == "" {
					return nil, errArgRequired("name")
				}
				restocks := true
				if in.RestocksInventory != nil {
					restocks = *in.RestocksInventory
				}
				re, err := h.Reasons.Create(ctx, domain.ReturnReason{
					HubID:             user.HubID,
					Name:              in.Name,
					Description:       in.Description,
					RestocksInventory: restocks,
					RequiresNote:      in.RequiresNote,
					IsActive:          true,
				})
				if err != nil {
					return nil, err
				}
				return toReasonResponse(re), nil
			},
		},
		{
			Name:        "list_store_credits",
			Description: "List store credits, optionally only redeemable ones.",
			Module:      "returns",
			Params: map[string]any{
				"active": "when true, only active credits with a balance",
				"limit":  "optional result cap, default 20",
			},
			MinRole: domain.RoleStaff,
			Run: func(ctx context.Context, user *authctx.CurrentUser, args json.RawMessage) (any, error) {
				var in struct {
					Active bool `json:"active"`
					Limit  int  `json:"limit"`
				}
				if len(args) > 0 {
					if err := json.Unmarshal(args, &in); err != nil {
						return nil, err
					}
				}
				if in.Limit <= 0 {
					in.Limit = 20
				}
				items, err := h.Credits.List(ctx, user.HubID, repository.CreditFilter{
					ActiveOnly: in.Active,
					Limit:      in.Limit,
				})
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(items))
				for i := range items {
					out = append(out, toCreditResponse(&items[i]))
				}
				return out, nil
			},
		},
	}
}

func (h AssistantHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tools := h.tools()
	resp := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		if !roleAllows(user.Role, t.MinRole) {
			continue
		}
		resp = append(resp, map[string]any{
			"name":                 t.Name,
			"description":          t.Description,
			"module":               t.Module,
			"params":               t.Params,
			"requiresConfirmation": t.RequiresConfirmation,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AssistantHandler) invoke(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name := chi.URLParam(r, "name")
	var tool *assistantTool
	for _, t := range h.tools() {
		if t.Name == name {
			tool = &t
			break
		}
	}
	if tool == nil {
		writeError(w, http.StatusNotFound, "unknown tool")
		return
	}
	if !roleAllows(user.Role, tool.MinRole) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req struct {
		Args json.RawMessage `json:"args"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := tool.Run(r.Context(), user, req.Args)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invocationId": uuid.NewString(),
		"tool":         tool.Name,
		"result":       result,
	})
}

// roleAllows mirrors the router's tiering: staff < manager < admin.
func roleAllows(have, need domain.UserRole) bool {
	rank := map[domain.UserRole]int{
		domain.RoleStaff:   1,
		domain.RoleManager: 2,
		domain.RoleAdmin:   3,
	}
	return rank[have] >= rank[need]
}

type errArgRequired string

func (e errArgRequired) Error() string { return string(e) + " is required" }
