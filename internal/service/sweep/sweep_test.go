package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/service/callback"
	"marketplace/internal/store/memory"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	f := memory.New(memory.WithClock(clock)).Factory()
	cb := callback.NewCallbackSrv(f, registry.New(), hook.Nop{}, callback.WithClock(clock))
	sweeper := New(f, cb, 24*time.Hour, WithClock(clock))

	stuck := &model.Resource{OfferingType: processor.TestBackendType, ProjectID: "p", State: model.ResourceCreating}
	require.NoError(t, f.Resources().Create(ctx, stuck))
	order := &model.Order{
		Type:       model.OrderCreate,
		ResourceID: stuck.ID,
		ProjectID:  "p",
		State:      model.OrderExecuting,
		CreatedBy:  "alice",
	}
	require.NoError(t, f.Orders().Create(ctx, order))
	healthy := &model.Resource{OfferingType: processor.TestBackendType, ProjectID: "p", State: model.ResourceOK}
	require.NoError(t, f.Resources().Create(ctx, healthy))

	now = now.Add(time.Hour)
	fresh := &model.Resource{OfferingType: processor.TestBackendType, ProjectID: "p", State: model.ResourceUpdating}
	require.NoError(t, f.Resources().Create(ctx, fresh))

	now = now.Add(24 * time.Hour)
	before := testutil.ToFloat64(metrics.SweptResources)
	swept, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{stuck.ID}, swept)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SweptResources))

	got, err := f.Resources().Get(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceErred, got.State)
	assert.Contains(t, got.ErrorMessage, "stuck")
	failed, err := f.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderErred, failed.State)
	assert.NotEmpty(t, failed.ErrorMessage)

	for _, id := range []string{healthy.ID, fresh.ID} {
		r, err := f.Resources().Get(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, model.ResourceErred, r.State)
	}

	swept, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, swept)
}
