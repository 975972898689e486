package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceTransitions(t *testing.T) {
	tests := []struct {
		from, to ResourceState
		want     bool
	}{
		{ResourceCreating, ResourceOK, true},
		{ResourceCreating, ResourceUpdating, false},
		{ResourceOK, ResourceUpdating, true},
		{ResourceUpdating, ResourceTerminating, false},
		{ResourceTerminating, ResourceTerminated, true},
		{ResourceErred, ResourceOK, true},
		{ResourceErred, ResourceTerminating, true},
		{ResourceTerminated, ResourceOK, false},
		{ResourceTerminated, ResourceErred, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitResource(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStates(t *testing.T) {
	for _, s := range ActiveOrderStates {
		assert.True(t, s.Active(), s)
		assert.False(t, s.Terminal(), s)
	}
	for _, s := range []OrderState{OrderDone, OrderErred, OrderRejected, OrderCanceled} {
		assert.True(t, s.Terminal(), s)
		assert.False(t, s.Active(), s)
		assert.False(t, CanTransitOrder(s, OrderExecuting), s)
	}
	assert.False(t, OrderState("BOGUS").Active())
	assert.True(t, CanTransitOrder(OrderPendingProvider, OrderExecuting))
	assert.False(t, CanTransitOrder(OrderExecuting, OrderPendingProvider))
}

func TestOfferingAccepts(t *testing.T) {
	assert.True(t, OfferingActive.Accepts(OrderCreate))
	assert.False(t, OfferingPaused.Accepts(OrderCreate))
	assert.True(t, OfferingPaused.Accepts(OrderTerminate))
	assert.False(t, OfferingArchived.Accepts(OrderTerminate))
	assert.False(t, OfferingDraft.Accepts(OrderUpdate))
}

func TestLimitsScan(t *testing.T) {
	var l Limits
	assert.NoError(t, l.Scan([]byte(`{"cores":2,"ram":4096}`)))
	assert.Equal(t, Limits{"cores": 2, "ram": 4096}, l)

	v, err := l.Value()
	assert.NoError(t, err)
	var back Limits
	assert.NoError(t, back.Scan(v))
	assert.True(t, l.Equal(back))

	assert.Error(t, l.Scan(42))
}

func TestAttributesMerge(t *testing.T) {
	base := Attributes{"name": "vm", "flavor": "small"}
	merged := base.Merge(map[string]interface{}{"flavor": "large", "ip": "10.0.0.1"})
	assert.Equal(t, Attributes{"name": "vm", "flavor": "large", "ip": "10.0.0.1"}, merged)
	assert.Equal(t, "small", base["flavor"])
}
