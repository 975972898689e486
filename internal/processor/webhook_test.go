package processor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"marketplace/internal/model"
)

func newWebhookServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/create", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "o1.create", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "CREATE", gjson.GetBytes(body, "action").String())
		assert.Equal(t, int64(2), gjson.GetBytes(body, "limits.cores").Int())
		_, _ = io.WriteString(w, `{"backend_id":"vm-1","metadata":{"ip":"10.0.0.1"}}`)
	})
	mux.HandleFunc("/update", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"pending":true}`)
	})
	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"volume is attached"}`)
	})
	mux.HandleFunc("/resources/vm-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"vm","runtime_state":"SHUTOFF","attributes":{"ip":"10.0.0.2"}}`)
	})
	return httptest.NewServer(mux)
}

func TestWebhook(t *testing.T) {
	srv := newWebhookServer(t)
	defer srv.Close()
	ctx := context.Background()
	w := NewWebhook(srv.URL+"/", time.Second, 0)
	res := &model.Resource{}
	res.ID = "r1"

	order := &model.Order{Type: model.OrderCreate, Limits: model.Limits{"cores": 2}}
	order.ID = "o1"
	result, err := w.Create(ctx, res, order, "alice")
	require.NoError(t, err)
	assert.Equal(t, "vm-1", result.BackendID)
	assert.Equal(t, "10.0.0.1", result.Metadata["ip"])

	result, err = w.Update(ctx, res, &model.Order{Type: model.OrderUpdate}, "alice")
	require.NoError(t, err)
	assert.True(t, result.Pending)

	_, err = w.Delete(ctx, res, &model.Order{Type: model.OrderTerminate}, "alice")
	require.Error(t, err)
	assert.Equal(t, "volume is attached", ErrorMessage(err))

	res.BackendID = "vm-1"
	imported, err := w.Pull(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, "SHUTOFF", imported.RuntimeState)
	assert.Equal(t, "vm-1", imported.BackendID)
	assert.Equal(t, "10.0.0.2", imported.Attributes["ip"])

	res.BackendID = "gone"
	_, err = w.Pull(ctx, res)
	assert.True(t, errors.Is(err, ErrBackendObjectNotFound))
}

func TestWebhookUnreachable(t *testing.T) {
	w := NewWebhook("http://127.0.0.1:1", 100*time.Millisecond, 0)
	_, err := w.Create(context.Background(), &model.Resource{}, &model.Order{Type: model.OrderCreate}, "alice")
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "create request failed", be.Message)
}
