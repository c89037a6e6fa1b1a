package tenants

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/lightning-whatsapp/internal/auth"
	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/loaders/loaderstest"
	"github.com/Conversly/lightning-whatsapp/internal/middleware"
	"github.com/Conversly/lightning-whatsapp/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEmbedder struct {
	err error
}

func (s stubEmbedder) EmbedResource(ctx context.Context, content string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "[0.6,0.8]", nil
}

func newRouter(store *loaderstest.MemoryStore, embedder ResourceEmbedder, adminKey string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	RegisterRoutes(r, NewService(store, embedder), auth.NewAuthenticator(store, ""), adminKey)
	return r
}

func postJSON(r http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler, name string) RegisterResponse {
	t.Helper()
	w := postJSON(r, "/register", RegisterRequest{Name: name}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegister(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	r := newRouter(store, nil, "")

	acme := register(t, r, "Acme")
	assert.Equal(t, "Acme", acme.Name)
	assert.NotZero(t, acme.ID)
	assert.NotEmpty(t, acme.APIKey)
	assert.True(t, acme.Success)

	globex := register(t, r, "Globex")
	assert.NotEqual(t, acme.APIKey, globex.APIKey)

	w := postJSON(r, "/register", RegisterRequest{Name: "Acme"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_exists")
	assert.Len(t, store.Tenants(), 2)

	w = postJSON(r, "/register", RegisterRequest{Name: "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/register", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_RetriesKeyCollision(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	_, err := store.CreateTenant(context.Background(), "Existing", "wak_dup")
	require.NoError(t, err)

	svc := NewService(store, nil)
	keys := []string{"wak_dup", "wak_dup", "wak_fresh"}
	svc.newKey = func() (string, error) {
		k := keys[0]
		keys = keys[1:]
		return k, nil
	}

	tenant, err := svc.Register(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "wak_fresh", tenant.APIKey)

	svc.newKey = func() (string, error) { return "wak_dup", nil }
	_, err = svc.Register(context.Background(), "Initech")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, loaders.ErrTenantExists)
}

func TestRegister_AdminProtected(t *testing.T) {
	r := newRouter(loaderstest.NewMemoryStore(), nil, "admin-secret")

	w := postJSON(r, "/register", RegisterRequest{Name: "Acme"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/register", RegisterRequest{Name: "Acme"}, map[string]string{middleware.AdminKeyHeader: "admin-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadResource(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	r := newRouter(store, nil, "")
	acme := register(t, r, "Acme")

	body := UploadResourceRequest{Name: "catalog", Type: "json", Content: `[{"name":"Widget","price":10}]`}

	w := postJSON(r, "/upload_resource", body, map[string]string{middleware.APIKeyHeader: acme.APIKey})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp UploadResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ResourceID)
	assert.Equal(t, "catalog", resp.Name)
	assert.Equal(t, "json", resp.Type)

	resources, err := store.ListResourcesByTenant(context.Background(), acme.ID)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, body.Content, resources[0].Content)
	assert.Nil(t, resources[0].Embedding)

	w = postJSON(r, "/upload_resource", body, map[string]string{middleware.APIKeyHeader: "wak_wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/upload_resource", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/upload_resource", map[string]string{"name": "x"}, map[string]string{middleware.APIKeyHeader: acme.APIKey})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadResource_Embedding(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	tenant, err := store.CreateTenant(context.Background(), "Acme", "wak_acme")
	require.NoError(t, err)
	req := &UploadResourceRequest{Name: "catalog", Type: "json", Content: "[]"}

	created, err := NewService(store, stubEmbedder{}).UploadResource(context.Background(), tenant, req)
	require.NoError(t, err)
	require.NotNil(t, created.Embedding)
	assert.Equal(t, "[0.6,0.8]", *created.Embedding)

	created, err = NewService(store, stubEmbedder{err: errors.New("quota")}).UploadResource(context.Background(), tenant, req)
	require.NoError(t, err)
	assert.Nil(t, created.Embedding)
}

func TestListConversations(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	r := newRouter(store, nil, "")
	acme := register(t, r, "Acme")
	other := register(t, r, "Other")

	for _, msg := range []string{"first", "second", "third"} {
		id := acme.ID
		_, err := store.InsertConversation(context.Background(), &types.Conversation{Sender: "+1", Message: msg, Response: "ok", TenantID: &id})
		require.NoError(t, err)
	}
	otherID := other.ID
	_, err := store.InsertConversation(context.Background(), &types.Conversation{Sender: "+2", Message: "elsewhere", TenantID: &otherID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/conversations?limit=2", nil)
	req.Header.Set(middleware.APIKeyHeader, acme.APIKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConversationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "third", resp.Conversations[0].Message)
	assert.Equal(t, "second", resp.Conversations[1].Message)

	req = httptest.NewRequest(http.MethodGet, "/conversations?limit=abc", nil)
	req.Header.Set(middleware.APIKeyHeader, acme.APIKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
