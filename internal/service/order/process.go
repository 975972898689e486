package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/service/callback"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

var tracer = otel.Tracer("marketplace/order")

// claimed is what the first transaction of Process committed.
type claimed struct {
	order    *model.Order
	resource *model.Resource
	oldState model.ResourceState
}

func (s *orderSrv) Process(ctx context.Context, orderID string, actor *Actor) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "process_order")
	span.SetAttributes(attribute.String("order_id", orderID))
	defer span.End()

	c, err := s.claim(ctx, orderID, actor)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.hooks.OnResourceStateChanged(ctx, c.resource.Clone(), c.oldState, c.resource.State)
	s.hooks.OnOrderExecuted(ctx, c.order.Clone())
	logger.From(ctx).Info("order executing",
		zap.String("order_id", c.order.ID),
		zap.String("type", string(c.order.Type)),
		zap.String("resource_id", c.resource.ID))

	// no row lock is held from here on
	result, err := s.invoke(ctx, c.resource, c.order, actor.ID)
	if err != nil {
		span.SetStatus(codes.Error, processor.ErrorMessage(err))
	}
	if err = s.applyResult(ctx, c, result, err); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.store.Orders().Get(ctx, c.order.ID)
}

// claim moves the order to EXECUTING and the resource to its transitional state in one transaction.
// A CREATE order gets its resource here.
func (s *orderSrv) claim(ctx context.Context, orderID string, actor *Actor) (*claimed, error) {
	c := &claimed{}
	err := s.store.Transaction(ctx, func(tx store.Factory) error {
		o, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.State != model.OrderPendingProvider {
			return errors.WithStack(code.ErrIncorrectState.WithResult(
				fmt.Sprintf("order %s is %s", o.ID, o.State)))
		}
		offering, err := s.acceptingOffering(ctx, tx, o.OfferingID, o.Type)
		if err != nil {
			return err
		}
		if _, err = s.registry.Get(offering.Type, o.Type); err != nil {
			return err
		}
		var r *model.Resource
		switch o.Type {
		case model.OrderCreate:
			if err = s.checkPlan(ctx, tx, offering, o.PlanID); err != nil {
				return err
			}
			r = newResource(o, offering)
			if err = tx.Resources().Create(ctx, r); err != nil {
				return err
			}
			o.ResourceID = r.ID
		default:
			if r, err = tx.Resources().GetForUpdate(ctx, o.ResourceID); err != nil {
				return err
			}
			if err = checkResourceState(r, o.Type); err != nil {
				return err
			}
			c.oldState = r.State
			if o.Type == model.OrderUpdate {
				o.OldPlanID = r.PlanID
				o.OldLimits = r.Limits.Clone()
				r.State = model.ResourceUpdating
			} else {
				r.State = model.ResourceTerminating
			}
			if err = tx.Resources().Save(ctx, r); err != nil {
				return err
			}
		}
		o.State = model.OrderExecuting
		if o.ProviderReviewedBy == "" {
			o.ProviderReviewedBy = actor.ID
		}
		if err = tx.Orders().Save(ctx, o); err != nil {
			return err
		}
		c.order, c.resource = o, r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newResource(o *model.Order, offering *model.Offering) *model.Resource {
	name, _ := o.Attributes["name"].(string)
	return &model.Resource{
		Name:         name,
		OfferingID:   offering.ID,
		OfferingType: offering.Type,
		PlanID:       o.PlanID,
		ProjectID:    o.ProjectID,
		State:        model.ResourceCreating,
		Limits:       o.Limits.Clone(),
		Attributes:   o.Attributes.Clone(),
	}
}

// invoke calls the backend for the order action.
func (s *orderSrv) invoke(ctx context.Context, r *model.Resource, o *model.Order, actor string) (*processor.Result, error) {
	var (
		name   string
		result *processor.Result
		err    error
	)
	ctx, span := tracer.Start(ctx, "backend."+strings.ToLower(string(o.Type)))
	defer span.End()
	start := time.Now()
	switch o.Type {
	case model.OrderCreate:
		var p processor.Creator
		if p, err = s.registry.Creator(r.OfferingType); err == nil {
			name = p.Name()
			result, err = p.Create(ctx, r.Clone(), o.Clone(), actor)
		}
	case model.OrderUpdate:
		var p processor.Updater
		if p, err = s.registry.Updater(r.OfferingType); err == nil {
			name = p.Name()
			result, err = p.Update(ctx, r.Clone(), o.Clone(), actor)
		}
	case model.OrderTerminate:
		var p processor.Deleter
		if p, err = s.registry.Deleter(r.OfferingType); err == nil {
			name = p.Name()
			result, err = p.Delete(ctx, r.Clone(), o.Clone(), actor)
		}
	}
	if err == nil && result == nil {
		result = &processor.Result{}
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case result.Pending:
		outcome = "pending"
	}
	span.SetAttributes(attribute.String("processor", name), attribute.String("outcome", outcome))
	metrics.BackendCalls.WithLabelValues(name, string(o.Type), outcome).Observe(time.Since(start).Seconds())
	return result, err
}

// applyResult hands a synchronous outcome to the callback service. Pending
// results only keep a backend id; completion arrives through a callback channel.
func (s *orderSrv) applyResult(ctx context.Context, c *claimed, result *processor.Result, backendErr error) error {
	id := c.resource.ID
	if backendErr != nil {
		msg := processor.ErrorMessage(backendErr)
		logger.From(ctx).Error("backend action failed",
			zap.String("order_id", c.order.ID),
			zap.String("resource_id", id),
			zap.Error(backendErr))
		var err error
		switch c.order.Type {
		case model.OrderCreate:
			_, err = s.callback.ResourceCreationFailed(ctx, id, msg, callback.Validate())
		case model.OrderUpdate:
			_, err = s.callback.ResourceUpdateFailed(ctx, id, msg, callback.Validate())
		case model.OrderTerminate:
			_, err = s.callback.ResourceDeletionFailed(ctx, id, msg, callback.Validate())
		}
		return err
	}
	if result.Pending {
		return s.recordBackendID(ctx, id, result.BackendID)
	}
	var err error
	switch c.order.Type {
	case model.OrderCreate:
		_, err = s.callback.ResourceCreationSucceeded(ctx, id, result, callback.Validate())
	case model.OrderUpdate:
		_, err = s.callback.ResourceUpdateSucceeded(ctx, id, callback.Validate())
	case model.OrderTerminate:
		_, err = s.callback.ResourceDeletionSucceeded(ctx, id, callback.Validate())
	}
	return err
}

// recordBackendID stores the id an asynchronous backend assigned up front. A set id is never replaced.
func (s *orderSrv) recordBackendID(ctx context.Context, resourceID, backendID string) error {
	if backendID == "" {
		return nil
	}
	return s.store.Transaction(ctx, func(tx store.Factory) error {
		r, err := tx.Resources().GetForUpdate(ctx, resourceID)
		if err != nil {
			return err
		}
		if r.BackendID != "" {
			return nil
		}
		r.BackendID = backendID
		return tx.Resources().Save(ctx, r)
	})
}
