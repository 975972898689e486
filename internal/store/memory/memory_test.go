package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/store"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestResourceCRUD(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := New(WithClock(c.Now)).Factory()

	r := &model.Resource{ProjectID: "p1", OfferingID: "o1", State: model.ResourceCreating, Limits: model.Limits{"cpu": 1}}
	require.NoError(t, f.Resources().Create(ctx, r))
	require.NotEmpty(t, r.ID)
	assert.Equal(t, c.Now(), r.CreatedAt)

	// the stored copy is isolated from the caller
	r.Limits["cpu"] = 8
	got, err := f.Resources().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Limits["cpu"])

	c.Add(time.Minute)
	got.State = model.ResourceOK
	require.NoError(t, f.Resources().Save(ctx, got))
	again, err := f.Resources().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceOK, again.State)
	assert.Equal(t, c.Now(), again.UpdatedAt)
	assert.Equal(t, r.CreatedAt, again.CreatedAt)

	_, err = f.Resources().Get(ctx, "missing")
	assert.True(t, errors.Is(err, code.ErrResourceNotFound))
	assert.True(t, errors.Is(f.Resources().Save(ctx, &model.Resource{}), code.ErrNoUpdate))
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	f := New().Factory()

	r := &model.Resource{ProjectID: "p1", State: model.ResourceOK}
	require.NoError(t, f.Resources().Create(ctx, r))

	boom := errors.New("boom")
	var orderID string
	err := f.Transaction(ctx, func(tx store.Factory) error {
		locked, err := tx.Resources().GetForUpdate(ctx, r.ID)
		if err != nil {
			return err
		}
		locked.State = model.ResourceUpdating
		if err = tx.Resources().Save(ctx, locked); err != nil {
			return err
		}
		o := &model.Order{ResourceID: r.ID, Type: model.OrderUpdate, State: model.OrderExecuting}
		if err = tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		orderID = o.ID
		if err = tx.Usages().Add(ctx, "p1", "vm.count", 1); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	got, err := f.Resources().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceOK, got.State)
	_, err = f.Orders().Get(ctx, orderID)
	assert.True(t, errors.Is(err, code.ErrOrderNotFound))
	list, err := f.Usages().List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransactionPanicRollsBack(t *testing.T) {
	ctx := context.Background()
	f := New().Factory()

	assert.Panics(t, func() {
		_ = f.Transaction(ctx, func(tx store.Factory) error {
			_ = tx.Usages().Add(ctx, "p1", "vm.count", 1)
			panic("boom")
		})
	})
	list, err := f.Usages().List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)

	// the transaction mutex was released
	require.NoError(t, f.Transaction(ctx, func(tx store.Factory) error {
		return tx.Usages().Add(ctx, "p1", "vm.count", 2)
	}))
}

func TestUsageAddConcurrent(t *testing.T) {
	ctx := context.Background()
	f := New().Factory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Usages().Add(ctx, "p1", "vm.count", 1)
		}()
	}
	wg.Wait()
	list, err := f.Usages().List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(50), list[0].Value)
}

func TestResourceList(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := New(WithClock(c.Now)).Factory()

	states := []model.ResourceState{model.ResourceCreating, model.ResourceOK, model.ResourceUpdating, model.ResourceOK}
	for _, s := range states {
		require.NoError(t, f.Resources().Create(ctx, &model.Resource{ProjectID: "p1", OfferingType: "vm", State: s}))
		c.Add(time.Hour)
	}

	list, err := f.Resources().List(ctx, &model.ResourceQuery{States: []model.ResourceState{model.ResourceOK}})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	before := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	list, err = f.Resources().List(ctx, &model.ResourceQuery{UpdatedBefore: &before})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.ResourceOK, list[0].State)
	assert.Equal(t, model.ResourceCreating, list[1].State)

	q := &model.ResourceQuery{}
	q.PageSize = 3
	q.PageNum = 2
	list, err = f.Resources().List(ctx, q)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(4), q.Total)
}

func TestOpenPlanPeriods(t *testing.T) {
	ctx := context.Background()
	f := New().Factory()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	open := &model.ResourcePlanPeriod{ResourceID: "r1", PlanID: "plan-a", Start: start}
	require.NoError(t, f.PlanPeriods().Create(ctx, open))
	require.NotZero(t, open.ID)

	list, err := f.PlanPeriods().ListOpen(ctx, "r1", "plan-a")
	require.NoError(t, err)
	require.Len(t, list, 1)

	end := start.Add(time.Hour)
	list[0].End = &end
	require.NoError(t, f.PlanPeriods().Save(ctx, list[0]))

	list, err = f.PlanPeriods().ListOpen(ctx, "r1", "plan-a")
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := f.PlanPeriods().ListByResource(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, end, *all[0].End)
}
