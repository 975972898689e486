package callback

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

// CallbackSrv turns backend reports into resource and order transitions.
// Every operation checks the current resource state first; a report that
// does not match is dropped with a warning, so duplicated or reordered
// deliveries are harmless.
type CallbackSrv interface {
	ResourceCreationSucceeded(ctx context.Context, resourceID string, result *processor.Result, opts ...Option) (*Outcome, error)
	ResourceCreationFailed(ctx context.Context, resourceID, errorMessage string, opts ...Option) (*Outcome, error)
	ResourceCreationCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error)
	ResourceUpdateSucceeded(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error)
	ResourceUpdateFailed(ctx context.Context, resourceID, errorMessage string, opts ...Option) (*Outcome, error)
	ResourceUpdateCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error)
	ResourceDeletionSucceeded(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error)
	ResourceDeletionFailed(ctx context.Context, resourceID, errorMessage string, opts ...Option) (*Outcome, error)
	ResourceDeletionCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error)
	Recover(ctx context.Context, resourceID string) (*Outcome, error)

	// SetOrderState applies a provider report about one order.
	SetOrderState(ctx context.Context, orderID string, report *StateReport) (*Outcome, error)
	// SyncScopeState follows a state change of the backend object bound to a resource.
	SyncScopeState(ctx context.Context, resourceID string, oldState, newState model.ResourceState, errorMessage string) (*Outcome, error)
	// FailStuck errs a resource still in a transitional state that was last modified before cutoff.
	FailStuck(ctx context.Context, resourceID string, cutoff time.Time, errorMessage string) (*Outcome, error)
	// FailMissing errs a transitional resource whose backend object is gone and fails its executing order.
	// marker is appended to the resource error message once.
	FailMissing(ctx context.Context, resourceID, marker string) (*Outcome, error)
}

// Outcome of a callback. Applied is false when the report was dropped.
type Outcome struct {
	Resource *model.Resource
	Order    *model.Order
	Applied  bool
}

type options struct {
	validate bool
}

type Option func(*options)

// Validate turns a missing EXECUTING order into a validation error instead of a resource only transition.
func Validate() Option {
	return func(o *options) {
		o.validate = true
	}
}

type SrvOption func(*callbackSrv)

// WithClock replaces the source of completion and plan period timestamps.
func WithClock(now func() time.Time) SrvOption {
	return func(c *callbackSrv) {
		c.now = now
	}
}

func NewCallbackSrv(f store.Factory, reg *registry.Registry, hooks hook.Hooks, opts ...SrvOption) CallbackSrv {
	c := &callbackSrv{
		store:    f,
		registry: reg,
		hooks:    hooks,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callbackSrv struct {
	store    store.Factory
	registry *registry.Registry
	hooks    hook.Hooks
	now      func() time.Time
}

// transition describes one guarded resource transition and the order that follows it.
type transition struct {
	operation string
	from      model.ResourceState
	to        model.ResourceState
	// duplicate is the state a repeated delivery finds the resource in; it is dropped quietly.
	duplicate model.ResourceState
	guard     func(r *model.Resource) bool

	orderType    model.OrderType
	orderState   model.OrderState
	errorMessage string

	mutate func(ctx context.Context, tx store.Factory, r *model.Resource, o *model.Order, e *effects) error
}

// effects are run in order once the transaction committed.
type effects struct {
	fns []func(ctx context.Context)
}

func (e *effects) add(fn func(ctx context.Context)) {
	e.fns = append(e.fns, fn)
}

func (c *callbackSrv) apply(ctx context.Context, resourceID string, t transition, opts ...Option) (*Outcome, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	ctx, span := otel.Tracer("marketplace/callback").Start(ctx, t.operation)
	span.SetAttributes(attribute.String("resource_id", resourceID))
	defer span.End()

	if !model.CanTransitResource(t.from, t.to) {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("%s: %s -> %s", t.operation, t.from, t.to)))
	}
	out := &Outcome{}
	after := &effects{}
	err := c.store.Transaction(ctx, func(tx store.Factory) error {
		r, err := tx.Resources().GetForUpdate(ctx, resourceID)
		if err != nil {
			return err
		}
		out.Resource = r
		if r.State != t.from || (t.guard != nil && !t.guard(r)) {
			c.ignore(ctx, t, r)
			return nil
		}
		var order *model.Order
		if t.orderType != "" {
			if order, err = executingOrder(ctx, tx, r.ID, t.orderType); err != nil {
				return err
			}
			if order == nil && o.validate {
				return errors.WithStack(code.ErrValidation.WithResult(
					fmt.Sprintf("resource %s has no executing %s order", r.ID, t.orderType)))
			}
		}
		if t.mutate != nil {
			if err = t.mutate(ctx, tx, r, order, after); err != nil {
				return err
			}
		}
		old := r.State
		r.State = t.to
		if err = tx.Resources().Save(ctx, r); err != nil {
			return err
		}
		snapshot := r.Clone()
		after.add(func(ctx context.Context) {
			c.hooks.OnResourceStateChanged(ctx, snapshot, old, t.to)
		})
		if order != nil {
			if err = c.finishOrder(ctx, tx, order, t, after); err != nil {
				return err
			}
		}
		out.Order = order
		out.Applied = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, fn := range after.fns {
		fn(ctx)
	}
	return out, nil
}

func (c *callbackSrv) finishOrder(ctx context.Context, tx store.Factory, order *model.Order, t transition, after *effects) error {
	if !model.CanTransitOrder(order.State, t.orderState) {
		return errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("order %s: %s -> %s", order.ID, order.State, t.orderState)))
	}
	now := c.now()
	order.State = t.orderState
	order.CompletedAt = &now
	if t.orderState == model.OrderErred {
		order.ErrorMessage = t.errorMessage
	}
	if err := tx.Orders().Save(ctx, order); err != nil {
		return err
	}
	snapshot := order.Clone()
	switch t.orderState {
	case model.OrderDone:
		after.add(func(ctx context.Context) {
			c.hooks.OnOrderCompleted(ctx, snapshot)
		})
	case model.OrderErred:
		after.add(func(ctx context.Context) {
			c.hooks.OnOrderFailed(ctx, snapshot)
		})
	}
	return nil
}

func (c *callbackSrv) ignore(ctx context.Context, t transition, r *model.Resource) {
	if r.State == t.duplicate && t.duplicate != "" {
		logger.From(ctx).Debug("duplicate callback",
			zap.String("operation", t.operation),
			zap.String("resource_id", r.ID),
			zap.String("state", string(r.State)))
		return
	}
	metrics.IgnoredCallbacks.WithLabelValues(t.operation).Inc()
	logger.From(ctx).Warn("callback does not match resource state",
		zap.String("operation", t.operation),
		zap.String("resource_id", r.ID),
		zap.String("state", string(r.State)),
		zap.String("expected", string(t.from)))
}

// executingOrder locks the EXECUTING order of type t on resourceID, if any.
func executingOrder(ctx context.Context, tx store.Factory, resourceID string, t model.OrderType) (*model.Order, error) {
	list, err := tx.Orders().List(ctx, &model.OrderQuery{
		ResourceID: resourceID,
		Types:      []model.OrderType{t},
		States:     []model.OrderState{model.OrderExecuting},
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return tx.Orders().GetForUpdate(ctx, list[0].ID)
}
