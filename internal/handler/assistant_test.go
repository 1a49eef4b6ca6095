package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReasonStore struct {
	created *domain.ReturnReason
}

func (s *stubReasonStore) List(ctx context.Context, hubID int64, activeOnly bool) ([]domain.ReturnReason, error) {
	return nil, nil
}

func (s *stubReasonStore) Get(ctx context.Context, hubID, id int64) (*domain.ReturnReason, error) {
	return nil, repository.ErrNotFound
}

func (s *stubReasonStore) Create(ctx context.Context, re domain.ReturnReason) (*domain.ReturnReason, error) {
	re.ID = 1
	s.created = &re
	return &re, nil
}

func assistantRequest(t *testing.T, method, target string, role domain.UserRole) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	ctx := authctx.WithCurrentUser(r.Context(), authctx.CurrentUser{
		ID:    1,
		HubID: 1,
		Email: "test@example.com",
		Role:  role,
	})
	return r.WithContext(ctx)
}

func TestAssistantToolListing(t *testing.T) {
	h := AssistantHandler{}
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	decode := func(w *httptest.ResponseRecorder) []map[string]any {
		var resp struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data
	}
	names := func(tools []map[string]any) []string {
		out := make([]string, 0, len(tools))
		for _, tool := range tools {
			out = append(out, tool["name"].(string))
		}
		return out
	}

	t.Run("staff sees read tools only", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, assistantRequest(t, "GET", "/assistant/tools", domain.RoleStaff))
		require.Equal(t, http.StatusOK, w.Code)
		got := names(decode(w))
		assert.Contains(t, got, "list_returns")
		assert.Contains(t, got, "list_return_reasons")
		assert.Contains(t, got, "list_store_credits")
		assert.NotContains(t, got, "create_return_reason")
	})

	t.Run("manager sees the mutating tool", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, assistantRequest(t, "GET", "/assistant/tools", domain.RoleManager))
		require.Equal(t, http.StatusOK, w.Code)
		got := names(decode(w))
		assert.Contains(t, got, "create_return_reason")
	})

	t.Run("mutating tool flags confirmation", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, assistantRequest(t, "GET", "/assistant/tools", domain.RoleAdmin))
		require.Equal(t, http.StatusOK, w.Code)
		for _, tool := range decode(w) {
			if tool["name"] == "create_return_reason" {
				assert.Equal(t, true, tool["requiresConfirmation"])
				return
			}
		}
		t.Fatal("create_return_reason not listed for admin")
	})
}

func TestAssistantInvokeGuards(t *testing.T) {
	h := AssistantHandler{}
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	t.Run("unknown tool", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, assistantRequest(t, "POST", "/assistant/tools/drop_database", domain.RoleAdmin))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("staff cannot invoke manager tool", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, assistantRequest(t, "POST", "/assistant/tools/create_return_reason", domain.RoleStaff))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAssistantCreateReasonRestockDefault(t *testing.T) {
	store := &stubReasonStore{}
	h := AssistantHandler{Reasons: store}
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	invoke := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		r := httptest.NewRequest("POST", "/assistant/tools/create_return_reason", strings.NewReader(body))
		ctx := authctx.WithCurrentUser(r.Context(), authctx.CurrentUser{
			ID:    1,
			HubID: 1,
			Email: "test@example.com",
			Role:  domain.RoleManager,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r.WithContext(ctx))
		return w
	}

	t.Run("restocks unless told otherwise", func(t *testing.T) {
		w := invoke(t, `{"args":{"name":"Changed mind"}}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, store.created)
		assert.True(t, store.created.RestocksInventory)
	})

	t.Run("explicit false wins", func(t *testing.T) {
		w := invoke(t, `{"args":{"name":"Defective","restocksInventory":false}}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, store.created)
		assert.False(t, store.created.RestocksInventory)
	})
}

func TestRoleAllows(t *testing.T) {
	assert.True(t, roleAllows(domain.RoleAdmin, domain.RoleManager))
	assert.True(t, roleAllows(domain.RoleManager, domain.RoleManager))
	assert.True(t, roleAllows(domain.RoleStaff, domain.RoleStaff))
	assert.False(t, roleAllows(domain.RoleStaff, domain.RoleManager))
	assert.False(t, roleAllows("", domain.RoleStaff))
}
