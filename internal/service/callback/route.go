package callback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

// StateReport is what a provider sends about an executing order.
type StateReport struct {
	State        model.OrderState
	ErrorMessage string
	BackendID    string
	Metadata     map[string]interface{}
}

func (c *callbackSrv) SetOrderState(ctx context.Context, orderID string, report *StateReport) (*Outcome, error) {
	order, err := c.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.State == report.State {
		logger.From(ctx).Debug("order already in reported state",
			zap.String("order_id", orderID),
			zap.String("state", string(order.State)))
		return &Outcome{Order: order}, nil
	}
	if order.State != model.OrderExecuting {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("order %s is %s", orderID, order.State)))
	}
	if order.ResourceID == "" {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("order %s has no resource yet", orderID)))
	}
	id := order.ResourceID
	switch order.Type {
	case model.OrderCreate:
		switch report.State {
		case model.OrderDone:
			return c.ResourceCreationSucceeded(ctx, id, &processor.Result{
				BackendID: report.BackendID,
				Metadata:  report.Metadata,
			}, Validate())
		case model.OrderErred:
			return c.ResourceCreationFailed(ctx, id, report.ErrorMessage, Validate())
		case model.OrderCanceled:
			return c.ResourceCreationCanceled(ctx, id, Validate())
		}
	case model.OrderUpdate:
		switch report.State {
		case model.OrderDone:
			return c.ResourceUpdateSucceeded(ctx, id, Validate())
		case model.OrderErred:
			return c.ResourceUpdateFailed(ctx, id, report.ErrorMessage, Validate())
		case model.OrderCanceled:
			return c.ResourceUpdateCanceled(ctx, id, Validate())
		}
	case model.OrderTerminate:
		switch report.State {
		case model.OrderDone:
			return c.ResourceDeletionSucceeded(ctx, id, Validate())
		case model.OrderErred:
			return c.ResourceDeletionFailed(ctx, id, report.ErrorMessage, Validate())
		case model.OrderCanceled:
			return c.ResourceDeletionCanceled(ctx, id, Validate())
		}
	}
	return nil, errors.WithStack(code.ErrValidation.WithResult(
		fmt.Sprintf("%s order cannot be set to %s", order.Type, report.State)))
}

func (c *callbackSrv) SyncScopeState(ctx context.Context, resourceID string, oldState, newState model.ResourceState,
	errorMessage string) (*Outcome, error) {
	switch {
	case oldState == model.ResourceCreating && newState == model.ResourceOK:
		return c.ResourceCreationSucceeded(ctx, resourceID, nil)
	case oldState == model.ResourceCreating && newState == model.ResourceErred:
		return c.ResourceCreationFailed(ctx, resourceID, errorMessage)
	case oldState == model.ResourceUpdating && newState == model.ResourceOK:
		return c.ResourceUpdateSucceeded(ctx, resourceID)
	case oldState == model.ResourceUpdating && newState == model.ResourceErred:
		return c.ResourceUpdateFailed(ctx, resourceID, errorMessage)
	case oldState == model.ResourceTerminating && newState == model.ResourceErred:
		return c.ResourceDeletionFailed(ctx, resourceID, errorMessage)
	}
	logger.From(ctx).Debug("scope state change has no callback",
		zap.String("resource_id", resourceID),
		zap.String("old_state", string(oldState)),
		zap.String("new_state", string(newState)))
	return &Outcome{}, nil
}

func (c *callbackSrv) FailStuck(ctx context.Context, resourceID string, cutoff time.Time, errorMessage string) (*Outcome, error) {
	// re-checked under the row lock, a late callback may have moved it meanwhile
	guard := func(r *model.Resource) bool {
		return r.UpdatedAt.Before(cutoff)
	}
	return c.failTransitional(ctx, resourceID, "sweep", errorMessage, guard, func(string) string {
		return errorMessage
	})
}

func (c *callbackSrv) FailMissing(ctx context.Context, resourceID, marker string) (*Outcome, error) {
	return c.failTransitional(ctx, resourceID, "not_found", marker, nil, func(previous string) string {
		return AppendMessage(previous, marker)
	})
}

// failTransitional errs a CREATING, UPDATING or TERMINATING resource together
// with its executing order. Other states are returned untouched.
func (c *callbackSrv) failTransitional(ctx context.Context, resourceID, prefix, orderMessage string,
	guard func(r *model.Resource) bool, message func(previous string) string) (*Outcome, error) {
	r, err := c.store.Resources().Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	t := transition{
		to:           model.ResourceErred,
		orderState:   model.OrderErred,
		errorMessage: orderMessage,
		guard:        guard,
		mutate: func(_ context.Context, _ store.Factory, r *model.Resource, _ *model.Order, _ *effects) error {
			r.ErrorMessage = message(r.ErrorMessage)
			r.RuntimeState = ""
			return nil
		},
	}
	switch r.State {
	case model.ResourceCreating:
		t.operation, t.from, t.orderType = prefix+"_creating", model.ResourceCreating, model.OrderCreate
	case model.ResourceUpdating:
		t.operation, t.from, t.orderType = prefix+"_updating", model.ResourceUpdating, model.OrderUpdate
	case model.ResourceTerminating:
		t.operation, t.from, t.orderType = prefix+"_terminating", model.ResourceTerminating, model.OrderTerminate
	default:
		return &Outcome{Resource: r}, nil
	}
	return c.apply(ctx, resourceID, t)
}

// AppendMessage adds msg to previous once, in parentheses when previous is not empty.
func AppendMessage(previous, msg string) string {
	switch {
	case strings.Contains(previous, msg):
		return previous
	case previous == "":
		return msg
	}
	return previous + " (" + msg + ")"
}
