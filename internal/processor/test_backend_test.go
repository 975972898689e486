package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/model"
)

func TestTestBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	tb := NewTestBackend()
	res := &model.Resource{PlanID: "p1"}
	order := &model.Order{Type: model.OrderCreate, PlanID: "p1", Attributes: model.Attributes{AttrBackendID: "abc123"}}

	result, err := tb.Create(ctx, res, order, "alice")
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.BackendID)
	assert.False(t, result.Pending)
	res.BackendID = result.BackendID

	imported, err := tb.Pull(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, "online", imported.RuntimeState)
	assert.Equal(t, "p1", imported.Attributes["backend_plan_id"])

	_, err = tb.Update(ctx, res, &model.Order{Type: model.OrderUpdate, PlanID: "p2"}, "alice")
	require.NoError(t, err)
	imported, err = tb.Pull(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, "p2", imported.Attributes["backend_plan_id"])

	_, err = tb.Delete(ctx, res, &model.Order{Type: model.OrderTerminate}, "alice")
	require.NoError(t, err)
	_, err = tb.Pull(ctx, res)
	assert.True(t, errors.Is(err, ErrBackendObjectNotFound))
	assert.Zero(t, tb.Count())
}

func TestTestBackendInjectedFailure(t *testing.T) {
	tb := NewTestBackend()
	_, err := tb.Create(context.Background(), &model.Resource{}, &model.Order{
		Attributes: model.Attributes{AttrFail: "quota exceeded"},
	}, "alice")
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", ErrorMessage(err))
	assert.Zero(t, tb.Count())
}

func TestTestBackendGeneratesBackendID(t *testing.T) {
	tb := NewTestBackend()
	result, err := tb.Create(context.Background(), &model.Resource{}, &model.Order{}, "alice")
	require.NoError(t, err)
	assert.Contains(t, result.BackendID, "tb-")
	tb.Forget(result.BackendID)
	_, err = tb.Pull(context.Background(), &model.Resource{BackendID: result.BackendID})
	assert.Equal(t, ErrBackendObjectNotFound, err)
}

func TestErrorMessage(t *testing.T) {
	wrapped := &BackendError{Message: "boom", Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "boom", ErrorMessage(wrapped))
	assert.Equal(t, "boom: dial tcp: refused", wrapped.Error())
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
}

func TestBasicIsPending(t *testing.T) {
	result, err := Basic{}.Create(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.Equal(t, BasicType, Basic{}.Name())
}
