package hook

import (
	"context"
	"time"

	"marketplace/internal/model"
)

//go:generate mockgen -source=./hook.go -destination=./mock_hook.go -package=hook

// Hooks receive the side effects of committed transitions. Implementations
// must return quickly and never fail the caller.
type Hooks interface {
	OnResourceStateChanged(ctx context.Context, resource *model.Resource, oldState, newState model.ResourceState)
	OnOrderExecuted(ctx context.Context, order *model.Order)
	OnOrderCompleted(ctx context.Context, order *model.Order)
	OnOrderFailed(ctx context.Context, order *model.Order)
	// OnCreationFailed asks for cleanup of whatever the backend left behind.
	OnCreationFailed(ctx context.Context, resource *model.Resource, order *model.Order)
	OnPlanChanged(ctx context.Context, resource *model.Resource, change PlanChange)
}

// PlanChange carries the before and after values of an applied update.
type PlanChange struct {
	OldPlanID string       `json:"old_plan_id"`
	NewPlanID string       `json:"new_plan_id"`
	OldLimits model.Limits `json:"old_limits"`
	NewLimits model.Limits `json:"new_limits"`
}

// Listener consumes events from the bus. Handle is retried on error.
type Listener interface {
	Name() string
	Handle(ctx context.Context, event *Event) error
}

type Kind string

const (
	KindResourceStateChanged Kind = "resource_state_changed"
	KindOrderExecuted        Kind = "order_executed"
	KindOrderCompleted       Kind = "order_completed"
	KindOrderFailed          Kind = "order_failed"
	KindCreationFailed       Kind = "creation_failed"
	KindPlanChanged          Kind = "plan_changed"
)

type Event struct {
	ID         uint64              `json:"id,string"`
	Kind       Kind                `json:"kind"`
	Resource   *model.Resource     `json:"resource,omitempty"`
	Order      *model.Order        `json:"order,omitempty"`
	OldState   model.ResourceState `json:"old_state,omitempty"`
	NewState   model.ResourceState `json:"new_state,omitempty"`
	PlanChange *PlanChange         `json:"plan_change,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// Nop drops every hook.
type Nop struct{}

func (Nop) OnResourceStateChanged(context.Context, *model.Resource, model.ResourceState, model.ResourceState) {
}

func (Nop) OnOrderExecuted(context.Context, *model.Order) {}

func (Nop) OnOrderCompleted(context.Context, *model.Order) {}

func (Nop) OnOrderFailed(context.Context, *model.Order) {}

func (Nop) OnCreationFailed(context.Context, *model.Resource, *model.Order) {}

func (Nop) OnPlanChanged(context.Context, *model.Resource, PlanChange) {}
