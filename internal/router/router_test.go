package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace/internal/hook"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/service"
	"marketplace/internal/service/authenticate"
	"marketplace/internal/store"
	"marketplace/internal/store/memory"
	"marketplace/pkg/json"
	"marketplace/pkg/limit"
	"marketplace/pkg/utils/v"
)

type fixture struct {
	engine   *gin.Engine
	store    store.Factory
	offering *model.Offering
}

func newFixture(t *testing.T, rl func(string) limit.RateLimiter) *fixture {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	f := memory.New().Factory()
	reg := registry.New()
	tb := processor.NewTestBackend()
	require.NoError(t, reg.Register(processor.TestBackendType, registry.Plugin{
		Create: tb, Update: tb, Delete: tb, SecretAttributes: []string{"password"},
	}))
	customer := &model.Customer{Name: "acme"}
	require.NoError(t, f.Customers().Save(ctx, customer))
	hash, err := authenticate.HashSecret("s3cret")
	require.NoError(t, err)
	offering := &model.Offering{
		Name:       "vm",
		Type:       processor.TestBackendType,
		State:      model.OfferingActive,
		CustomerID: customer.ID,
		SecretCode: hash,
	}
	require.NoError(t, f.Offerings().Save(ctx, offering))

	engine, err := New(service.NewService(f, reg, hook.Nop{}), &Options{
		ServiceName: "marketplace",
		Logger:      zap.NewNop(),
		RateLimiter: rl,
		Registry:    prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return &fixture{engine: engine, store: f, offering: offering}
}

func (f *fixture) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		buf.Write(raw)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

var approver = map[string]string{v.HeaderUserID: "bob", v.HeaderApprover: "consumer,provider"}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/health", nil, nil).Code)
	f.do(http.MethodGet, "/health", nil, nil)
	w := f.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace_http_requests_total")
}

func TestUserHeaderRequired(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/v1/orders", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAndQuery(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"type":        "CREATE",
		"offering_id": f.offering.ID,
		"project_id":  "project-1",
		"attributes":  map[string]interface{}{"name": "vm-1", "password": "hunter2"},
	}, approver)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, model.OrderDone, o.State)
	require.NotEmpty(t, o.ResourceID)

	w = f.do(http.MethodGet, "/v1/orders/"+o.ID, nil, approver)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/v1/resources/"+o.ResourceID, nil, approver)
	require.Equal(t, http.StatusOK, w.Code)
	var r model.Resource
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, model.ResourceOK, r.State)
	assert.NotEqual(t, "hunter2", r.Attributes["password"])

	w = f.do(http.MethodGet, "/v1/resources?project_id=project-1", nil, approver)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64             `json:"total"`
		Items []*model.Resource `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)

	w = f.do(http.MethodGet, "/v1/orders/missing", nil, approver)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewFlow(t *testing.T) {
	f := newFixture(t, nil)
	consumer := map[string]string{v.HeaderUserID: "alice"}
	w := f.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"type":        "CREATE",
		"offering_id": f.offering.ID,
		"project_id":  "project-1",
	}, consumer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, model.OrderPendingConsumer, o.State)

	w = f.do(http.MethodPost, "/v1/orders/"+o.ID+"/reject", nil, approver)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, model.OrderRejected, o.State)

	w = f.do(http.MethodPost, "/v1/orders/"+o.ID+"/cancel", nil, consumer)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSetStateRequiresSecret(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	r := &model.Resource{
		OfferingID:   f.offering.ID,
		OfferingType: processor.TestBackendType,
		ProjectID:    "project-1",
		State:        model.ResourceCreating,
	}
	require.NoError(t, f.store.Resources().Create(ctx, r))
	o := &model.Order{
		Type:       model.OrderCreate,
		ResourceID: r.ID,
		OfferingID: f.offering.ID,
		ProjectID:  "project-1",
		State:      model.OrderExecuting,
	}
	require.NoError(t, f.store.Orders().Create(ctx, o))

	body := map[string]interface{}{"state": "DONE", "backend_id": "vm-7"}
	w := f.do(http.MethodPost, "/v1/orders/"+o.ID+"/set_state", body, map[string]string{v.HeaderSecretCode: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/v1/orders/"+o.ID+"/set_state", body, map[string]string{v.HeaderSecretCode: "s3cret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Applied)

	got, err := f.store.Resources().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceOK, got.State)
	assert.Equal(t, "vm-7", got.BackendID)
}

func TestOfferingTypes(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/v1/offering-types", nil, approver)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), processor.TestBackendType)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(string) limit.RateLimiter { return limit.DenyRateLimiter{} })
	w := f.do(http.MethodGet, "/v1/offering-types", nil, approver)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
