package callback

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/hook"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

func (c *callbackSrv) ResourceCreationSucceeded(ctx context.Context, resourceID string, result *processor.Result,
	opts ...Option) (*Outcome, error) {
	if result == nil {
		result = &processor.Result{}
	}
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_creation_succeeded",
		from:       model.ResourceCreating,
		to:         model.ResourceOK,
		duplicate:  model.ResourceOK,
		orderType:  model.OrderCreate,
		orderState: model.OrderDone,
		mutate: func(ctx context.Context, tx store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			switch {
			case r.BackendID == "":
				r.BackendID = result.BackendID
			case result.BackendID != "" && result.BackendID != r.BackendID:
				logger.From(ctx).Warn("creation report carries a different backend id, keeping the stored one",
					zap.String("resource_id", r.ID),
					zap.String("backend_id", r.BackendID),
					zap.String("reported_backend_id", result.BackendID))
			}
			if len(result.Metadata) > 0 {
				r.Attributes = r.Attributes.Merge(result.Metadata)
			}
			r.ErrorMessage = ""
			if r.PlanID == "" {
				return nil
			}
			return c.openPeriod(ctx, tx, r.ID, r.PlanID)
		},
	}, opts...)
}

func (c *callbackSrv) ResourceCreationFailed(ctx context.Context, resourceID, errorMessage string,
	opts ...Option) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation:    "resource_creation_failed",
		from:         model.ResourceCreating,
		to:           model.ResourceErred,
		duplicate:    model.ResourceErred,
		orderType:    model.OrderCreate,
		orderState:   model.OrderErred,
		errorMessage: errorMessage,
		mutate: func(_ context.Context, _ store.Factory, r *model.Resource, o *model.Order, e *effects) error {
			r.ErrorMessage = errorMessage
			snapshot := r.Clone()
			snapshot.State = model.ResourceErred
			var order *model.Order
			if o != nil {
				order = o.Clone()
				order.State = model.OrderErred
				order.ErrorMessage = errorMessage
			}
			e.add(func(ctx context.Context) {
				c.hooks.OnCreationFailed(ctx, snapshot, order)
			})
			return nil
		},
	}, opts...)
}

func (c *callbackSrv) ResourceCreationCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error) {
	if err := c.checkCancelable(ctx, resourceID); err != nil {
		return nil, err
	}
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_creation_canceled",
		from:       model.ResourceCreating,
		to:         model.ResourceTerminated,
		duplicate:  model.ResourceTerminated,
		orderType:  model.OrderCreate,
		orderState: model.OrderCanceled,
	}, opts...)
}

func (c *callbackSrv) ResourceUpdateSucceeded(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_update_succeeded",
		from:       model.ResourceUpdating,
		to:         model.ResourceOK,
		duplicate:  model.ResourceOK,
		orderType:  model.OrderUpdate,
		orderState: model.OrderDone,
		mutate:     c.applyUpdate,
	}, opts...)
}

// applyUpdate makes the plan and limits recorded on the order permanent.
func (c *callbackSrv) applyUpdate(ctx context.Context, tx store.Factory, r *model.Resource, o *model.Order, e *effects) error {
	r.ErrorMessage = ""
	if o == nil {
		return nil
	}
	change := hook.PlanChange{
		OldPlanID: r.PlanID,
		NewPlanID: r.PlanID,
		OldLimits: r.Limits.Clone(),
		NewLimits: r.Limits.Clone(),
	}
	if o.PlanID != "" && o.PlanID != r.PlanID {
		if r.PlanID != "" {
			if err := c.closePeriods(ctx, tx, r.ID, r.PlanID); err != nil {
				return err
			}
		}
		if err := c.openPeriod(ctx, tx, r.ID, o.PlanID); err != nil {
			return err
		}
		r.PlanID = o.PlanID
		change.NewPlanID = o.PlanID
	}
	if o.Limits != nil {
		r.Limits = o.Limits.Clone()
		change.NewLimits = o.Limits.Clone()
	}
	if change.OldPlanID == change.NewPlanID && change.OldLimits.Equal(change.NewLimits) {
		return nil
	}
	snapshot := r.Clone()
	e.add(func(ctx context.Context) {
		c.hooks.OnPlanChanged(ctx, snapshot, change)
	})
	return nil
}

// ResourceUpdateFailed leaves plan and limits at their values before the update.
func (c *callbackSrv) ResourceUpdateFailed(ctx context.Context, resourceID, errorMessage string,
	opts ...Option) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation:    "resource_update_failed",
		from:         model.ResourceUpdating,
		to:           model.ResourceErred,
		duplicate:    model.ResourceErred,
		orderType:    model.OrderUpdate,
		orderState:   model.OrderErred,
		errorMessage: errorMessage,
		mutate: func(_ context.Context, _ store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			r.ErrorMessage = errorMessage
			return nil
		},
	}, opts...)
}

func (c *callbackSrv) ResourceUpdateCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error) {
	if err := c.checkCancelable(ctx, resourceID); err != nil {
		return nil, err
	}
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_update_canceled",
		from:       model.ResourceUpdating,
		to:         model.ResourceOK,
		orderType:  model.OrderUpdate,
		orderState: model.OrderCanceled,
	}, opts...)
}

func (c *callbackSrv) ResourceDeletionSucceeded(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_deletion_succeeded",
		from:       model.ResourceTerminating,
		to:         model.ResourceTerminated,
		duplicate:  model.ResourceTerminated,
		orderType:  model.OrderTerminate,
		orderState: model.OrderDone,
		mutate: func(ctx context.Context, tx store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			r.ErrorMessage = ""
			if r.PlanID == "" {
				return nil
			}
			return c.closePeriods(ctx, tx, r.ID, r.PlanID)
		},
	}, opts...)
}

// ResourceDeletionFailed leaves the resource ERRED, from where a new TERMINATE order may retry.
func (c *callbackSrv) ResourceDeletionFailed(ctx context.Context, resourceID, errorMessage string,
	opts ...Option) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation:    "resource_deletion_failed",
		from:         model.ResourceTerminating,
		to:           model.ResourceErred,
		duplicate:    model.ResourceErred,
		orderType:    model.OrderTerminate,
		orderState:   model.OrderErred,
		errorMessage: errorMessage,
		mutate: func(_ context.Context, _ store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			r.ErrorMessage = errorMessage
			return nil
		},
	}, opts...)
}

func (c *callbackSrv) ResourceDeletionCanceled(ctx context.Context, resourceID string, opts ...Option) (*Outcome, error) {
	if err := c.checkCancelable(ctx, resourceID); err != nil {
		return nil, err
	}
	return c.apply(ctx, resourceID, transition{
		operation:  "resource_deletion_canceled",
		from:       model.ResourceTerminating,
		to:         model.ResourceOK,
		orderType:  model.OrderTerminate,
		orderState: model.OrderCanceled,
	}, opts...)
}

// Recover brings an ERRED resource back to OK. A resource that never got a
// backend object has nothing to recover and is left alone.
func (c *callbackSrv) Recover(ctx context.Context, resourceID string) (*Outcome, error) {
	return c.apply(ctx, resourceID, transition{
		operation: "recover",
		from:      model.ResourceErred,
		to:        model.ResourceOK,
		duplicate: model.ResourceOK,
		guard: func(r *model.Resource) bool {
			return r.BackendID != ""
		},
		mutate: func(_ context.Context, _ store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			r.ErrorMessage = ""
			return nil
		},
	})
}

// checkCancelable allows provider side cancellation of an executing order only for
// offering types registered with CanTerminateOrder.
func (c *callbackSrv) checkCancelable(ctx context.Context, resourceID string) error {
	r, err := c.store.Resources().Get(ctx, resourceID)
	if err != nil {
		return err
	}
	if !c.registry.CanCancelOrder(r.OfferingType) {
		return errors.WithStack(code.ErrValidation.WithResult(
			"offering type " + r.OfferingType + " does not allow canceling an executing order"))
	}
	return nil
}
