package hook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/store/memory"
)

type chanListener struct {
	name     string
	events   chan *Event
	failures int32
	attempts int32
}

func (c *chanListener) Name() string {
	return c.name
}

func (c *chanListener) Handle(_ context.Context, e *Event) error {
	atomic.AddInt32(&c.attempts, 1)
	if atomic.AddInt32(&c.failures, -1) >= 0 {
		return errors.New("transient")
	}
	c.events <- e
	return nil
}

func receive(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func TestBusDeliversToEveryListener(t *testing.T) {
	bus := NewBus(zap.NewNop(), WithRetryInterval(time.Millisecond))
	defer bus.Close()

	first := &chanListener{name: "first", events: make(chan *Event, 4)}
	second := &chanListener{name: "second", events: make(chan *Event, 4), failures: 2}
	require.NoError(t, bus.AddListener(first))
	require.NoError(t, bus.AddListener(second))

	order := &model.Order{Type: model.OrderCreate, State: model.OrderDone}
	order.ID = "o1"
	bus.OnOrderCompleted(context.Background(), order)

	for _, l := range []*chanListener{first, second} {
		e := receive(t, l.events)
		assert.Equal(t, KindOrderCompleted, e.Kind)
		assert.Equal(t, "o1", e.Order.ID)
		assert.NotZero(t, e.ID)
	}
}

func TestBusGivesUpAfterMaxRetries(t *testing.T) {
	bus := NewBus(zap.NewNop(), WithRetryInterval(time.Millisecond), WithMaxRetries(1))
	defer bus.Close()

	broken := &chanListener{name: "broken", events: make(chan *Event, 4), failures: 100}
	require.NoError(t, bus.AddListener(broken))

	bus.OnOrderFailed(context.Background(), &model.Order{State: model.OrderErred})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&broken.attempts) == 2
	}, 5*time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&broken.attempts))
	assert.Empty(t, broken.events)
}

func TestUsageListener(t *testing.T) {
	ctx := context.Background()
	f := memory.New().Factory()
	u := &UsageListener{Store: f}
	r := &model.Resource{ProjectID: "p1", OfferingType: "vm", Limits: model.Limits{"cores": 2, "ram": 1024}}

	require.NoError(t, u.Handle(ctx, &Event{Kind: KindResourceStateChanged, Resource: r, NewState: model.ResourceCreating}))
	require.NoError(t, u.Handle(ctx, &Event{Kind: KindResourceStateChanged, Resource: r,
		OldState: model.ResourceCreating, NewState: model.ResourceOK}))
	require.NoError(t, u.Handle(ctx, &Event{Kind: KindPlanChanged, Resource: r, PlanChange: &PlanChange{
		OldLimits: model.Limits{"cores": 2, "ram": 1024},
		NewLimits: model.Limits{"cores": 4, "ram": 1024},
	}}))

	usage := func() map[string]int64 {
		list, err := f.Usages().List(ctx, "p1")
		require.NoError(t, err)
		out := make(map[string]int64, len(list))
		for _, u := range list {
			out[u.Name] = u.Value
		}
		return out
	}
	assert.Equal(t, map[string]int64{"vm.count": 1, "vm.limit.cores": 4, "vm.limit.ram": 1024}, usage())

	r.Limits = model.Limits{"cores": 4, "ram": 1024}
	require.NoError(t, u.Handle(ctx, &Event{Kind: KindResourceStateChanged, Resource: r,
		OldState: model.ResourceTerminating, NewState: model.ResourceTerminated}))
	assert.Equal(t, map[string]int64{"vm.count": 0, "vm.limit.cores": 0, "vm.limit.ram": 0}, usage())
}

func TestMetricsListener(t *testing.T) {
	before := testutil.ToFloat64(metrics.ResourceTransitions.WithLabelValues("vm", "NONE", "CREATING"))
	require.NoError(t, MetricsListener{}.Handle(context.Background(), &Event{
		Kind:     KindResourceStateChanged,
		Resource: &model.Resource{OfferingType: "vm"},
		NewState: model.ResourceCreating,
	}))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ResourceTransitions.WithLabelValues("vm", "NONE", "CREATING")))
}
